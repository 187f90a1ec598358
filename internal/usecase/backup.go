package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/metrics"
)

type Backup struct {
	db            domain.Database
	store         BackupStore
	uploadTargets []UploadTarget
	compressor    domain.Compressor
	clock         *Clock
	logger        Logger
	compress      bool

	// slot serializes dump and restore; a second caller gets ErrBusy.
	slot    sync.Mutex
	mirrors sync.WaitGroup
}

type UploadTarget struct {
	Name    string
	Storage domain.Storage
}

// BackupStore is the local directory that holds every dump.
type BackupStore interface {
	EnsureReady() error
	List(ctx context.Context) ([]domain.BackupFile, error)
	MostRecent(ctx context.Context) (domain.BackupFile, error)
	Write(ctx context.Context, name string, payload []byte) (domain.BackupFile, error)
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

func NewBackup(
	db domain.Database,
	store BackupStore,
	uploadTargets []UploadTarget,
	compressor domain.Compressor,
	clock *Clock,
	logger Logger,
	compress bool,
) *Backup {
	return &Backup{
		db:            db,
		store:         store,
		uploadTargets: uploadTargets,
		compressor:    compressor,
		clock:         clock,
		logger:        logger,
		compress:      compress,
	}
}

// Execute dumps the database into a new file in the backup store and hands
// a copy to the upload targets in the background.
func (uc *Backup) Execute(ctx context.Context, trigger domain.Trigger) (domain.BackupFile, error) {
	if !uc.slot.TryLock() {
		return domain.BackupFile{}, domain.ErrBusy
	}
	defer uc.slot.Unlock()

	start := time.Now()
	dbName := uc.db.GetName()
	uc.logger.Infof("[%s] Starting %s backup...", dbName, trigger)

	file, err := uc.dump(ctx)
	metrics.RecordBackup(string(trigger), start, file.Size, err)
	if err != nil {
		uc.logger.Errorf("[%s] Backup failed: %s", dbName, domain.ErrorDetail(err))
		return domain.BackupFile{}, err
	}

	uc.logger.Infof("[%s] Backup saved to %s (%.2f MB) in %s",
		dbName, file.Path, float64(file.Size)/(1024*1024), time.Since(start).Round(time.Millisecond))

	if len(uc.uploadTargets) > 0 {
		uc.mirrors.Add(1)
		go func() {
			defer uc.mirrors.Done()
			uc.mirror(context.WithoutCancel(ctx), file)
		}()
	}

	return file, nil
}

func (uc *Backup) dump(ctx context.Context) (domain.BackupFile, error) {
	if err := uc.store.EnsureReady(); err != nil {
		return domain.BackupFile{}, err
	}

	payload, err := uc.db.Dump(ctx)
	if err != nil {
		return domain.BackupFile{}, err
	}

	name := domain.BackupFileName(uc.clock.Now(), uc.clock.Location())
	return uc.store.Write(ctx, name, payload)
}

// Restore loads the most recent backup. Nothing is run when the store is
// empty.
func (uc *Backup) Restore(ctx context.Context) (domain.BackupFile, error) {
	if !uc.slot.TryLock() {
		return domain.BackupFile{}, domain.ErrBusy
	}
	defer uc.slot.Unlock()

	dbName := uc.db.GetName()

	if err := uc.store.EnsureReady(); err != nil {
		return domain.BackupFile{}, err
	}

	file, err := uc.store.MostRecent(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoBackupAvailable) {
			uc.logger.Warnf("[%s] Restore requested but no backup is available", dbName)
		}
		return domain.BackupFile{}, err
	}

	start := time.Now()
	uc.logger.Infof("[%s] Restoring from %s...", dbName, file.Path)

	err = uc.db.Restore(ctx, file)
	metrics.RecordRestore(start, err)
	if err != nil {
		uc.logger.Errorf("[%s] Restore from %s failed: %s", dbName, file.Name, domain.ErrorDetail(err))
		return domain.BackupFile{}, err
	}

	uc.logger.Infof("[%s] Restored %s in %s", dbName, file.Name, time.Since(start).Round(time.Millisecond))

	return file, nil
}

func (uc *Backup) List(ctx context.Context) ([]domain.BackupFile, error) {
	if err := uc.store.EnsureReady(); err != nil {
		return nil, err
	}
	return uc.store.List(ctx)
}

// Wait blocks until a running dump or restore and the background uploads it
// started have finished.
func (uc *Backup) Wait() {
	uc.slot.Lock()
	uc.slot.Unlock()
	uc.mirrors.Wait()
}

func (uc *Backup) mirror(ctx context.Context, file domain.BackupFile) {
	dbName := uc.db.GetName()
	path, name := file.Path, file.Name

	if uc.compress {
		tempDir, err := os.MkdirTemp("", "keeper-mirror-")
		if err != nil {
			uc.logger.Errorf("[%s] Failed to create temp dir for compression: %v", dbName, err)
			return
		}
		defer os.RemoveAll(tempDir)

		path, name, err = uc.compressBackup(file, tempDir)
		if err != nil {
			uc.logger.Errorf("[%s] %v", dbName, err)
			return
		}
	}

	var wg sync.WaitGroup

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			uc.logger.Infof("[%s] Uploading %s to %s...", dbName, name, t.Name)
			err := t.Storage.Upload(ctx, path, name)
			metrics.RecordMirrorUpload(t.Name, err)
			if err != nil {
				uc.logger.Errorf("[%s] Failed to upload to %s: %v", dbName, t.Name, err)
			} else {
				uc.logger.Infof("[%s] Successfully uploaded to %s", dbName, t.Name)
			}
		}(target)
	}

	wg.Wait()
}

func (uc *Backup) compressBackup(file domain.BackupFile, tempDir string) (string, string, error) {
	dbName := uc.db.GetName()
	compressedName := file.Name + uc.compressor.Extension()
	compressedPath := filepath.Join(tempDir, compressedName)

	uc.logger.Infof("[%s] Compressing %s...", dbName, file.Name)
	if err := uc.compressor.Compress(file.Path, compressedPath); err != nil {
		return "", "", fmt.Errorf("compression: %w", err)
	}

	if info, err := os.Stat(compressedPath); err == nil && file.Size > 0 {
		uc.logger.Infof("[%s] Compression complete, size: %.2f MB (%.1f%% of original)",
			dbName,
			float64(info.Size())/(1024*1024),
			float64(info.Size())/float64(file.Size)*100)
	}

	return compressedPath, compressedName, nil
}
