package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/semmidev/keeper/internal/domain"
)

type mockDatabase struct {
	mock.Mock
}

func (m *mockDatabase) Dump(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	payload, _ := args.Get(0).([]byte)
	return payload, args.Error(1)
}

func (m *mockDatabase) Restore(ctx context.Context, file domain.BackupFile) error {
	return m.Called(ctx, file).Error(0)
}

func (m *mockDatabase) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockDatabase) GetName() string { return "main" }
func (m *mockDatabase) GetType() string { return "mysql" }

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	return m.Called(ctx, localPath, remoteName).Error(0)
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, trigger domain.Trigger) (domain.BackupFile, error) {
	args := m.Called(ctx, trigger)
	return args.Get(0).(domain.BackupFile), args.Error(1)
}

func fixedClock(loc *time.Location, at time.Time) *Clock {
	return &Clock{location: loc, now: func() time.Time { return at }}
}
