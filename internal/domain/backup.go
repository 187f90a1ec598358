package domain

import (
	"context"
	"time"
)

// BackupFilePattern is the time layout used to name dump files. The timestamp
// is always rendered in the application's time zone.
const BackupFilePattern = "backup-02-01-2006_15-04-05.sql"

type BackupFile struct {
	Name       string
	Path       string
	Size       int64
	ModifiedAt time.Time
}

// Trigger tells who asked for a backup.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerAuto   Trigger = "auto"
)

type BackupExecutor interface {
	Execute(ctx context.Context, trigger Trigger) (BackupFile, error)
}

// BackupFileName returns the dump file name for the given instant.
func BackupFileName(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(BackupFilePattern)
}
