package domain

import "context"

// Database dumps and loads a whole database through the vendor tools.
type Database interface {
	Dump(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, file BackupFile) error
	GetName() string
	GetType() string
	Ping(ctx context.Context) error
}
