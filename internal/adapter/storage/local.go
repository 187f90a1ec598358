package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/semmidev/keeper/internal/domain"
)

var backupNamePattern = regexp.MustCompile(`^backup-.+\.sql$`)

// LocalStorage is the backup directory. It is the only place dumps are read
// back from.
type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup directory: %w", err)
	}
	return &LocalStorage{basePath: abs}, nil
}

// EnsureReady creates the backup directory when it is missing.
func (l *LocalStorage) EnsureReady() error {
	if err := os.MkdirAll(l.basePath, 0755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// List returns the backup files, newest first. A missing directory yields an
// empty list.
func (l *LocalStorage) List(ctx context.Context) ([]domain.BackupFile, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.BackupFile{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	files := make([]domain.BackupFile, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !backupNamePattern.MatchString(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrStorageUnavailable, entry.Name(), err)
		}

		files = append(files, domain.BackupFile{
			Name:       entry.Name(),
			Path:       filepath.Join(l.basePath, entry.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModifiedAt.Equal(files[j].ModifiedAt) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModifiedAt.After(files[j].ModifiedAt)
	})

	return files, nil
}

// MostRecent returns the newest backup file.
func (l *LocalStorage) MostRecent(ctx context.Context) (domain.BackupFile, error) {
	files, err := l.List(ctx)
	if err != nil {
		return domain.BackupFile{}, err
	}
	if len(files) == 0 {
		return domain.BackupFile{}, domain.ErrNoBackupAvailable
	}
	return files[0], nil
}

// Write stores payload under name. An existing file with the same name is
// never overwritten.
func (l *LocalStorage) Write(ctx context.Context, name string, payload []byte) (domain.BackupFile, error) {
	if name != filepath.Base(name) || !backupNamePattern.MatchString(name) {
		return domain.BackupFile{}, fmt.Errorf("%w: bad backup name %q", domain.ErrInvalidArgument, name)
	}
	if err := l.EnsureReady(); err != nil {
		return domain.BackupFile{}, err
	}

	path := filepath.Join(l.basePath, name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return domain.BackupFile{}, fmt.Errorf("%w: create %s: %v", domain.ErrStorageUnavailable, name, err)
	}

	if _, err := file.Write(payload); err != nil {
		file.Close()
		os.Remove(path)
		return domain.BackupFile{}, fmt.Errorf("%w: write %s: %v", domain.ErrStorageUnavailable, name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return domain.BackupFile{}, fmt.Errorf("%w: close %s: %v", domain.ErrStorageUnavailable, name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.BackupFile{}, fmt.Errorf("%w: stat %s: %v", domain.ErrStorageUnavailable, name, err)
	}

	return domain.BackupFile{
		Name:       name,
		Path:       path,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filename)
}
