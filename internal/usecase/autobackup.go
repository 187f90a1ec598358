package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/semmidev/keeper/internal/domain"
)

// AutoBackup is the per-second job behind the scheduled backups.
type AutoBackup struct {
	schedule *Schedule
	backup   domain.BackupExecutor
	clock    *Clock
	logger   Logger

	inflight sync.WaitGroup
}

func NewAutoBackup(schedule *Schedule, backup domain.BackupExecutor, clock *Clock, logger Logger) *AutoBackup {
	return &AutoBackup{
		schedule: schedule,
		backup:   backup,
		clock:    clock,
		logger:   logger,
	}
}

// Run checks the schedule once. A due backup runs in its own goroutine so the
// tick returns immediately; its failure only affects that minute.
func (uc *AutoBackup) Run(ctx context.Context) error {
	now := uc.clock.Now()
	if !uc.schedule.Tick(now) {
		return nil
	}

	uc.logger.Infof("Automatic backup due at %s", now.Format(formattedLayout))

	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()

		file, err := uc.backup.Execute(ctx, domain.TriggerAuto)
		switch {
		case errors.Is(err, domain.ErrBusy):
			uc.logger.Warnf("Automatic backup skipped: %v", err)
		case err != nil:
			uc.logger.Errorf("Automatic backup failed: %s", domain.ErrorDetail(err))
		default:
			uc.logger.Infof("Automatic backup created: %s", file.Name)
		}
	}()

	return nil
}

// Wait blocks until automatic backups started by Run have returned.
func (uc *AutoBackup) Wait() {
	uc.inflight.Wait()
}
