package domain

import "context"

// Storage is an off-site target that receives a copy of every dump. The local
// backup directory stays the source of truth; targets are never read back.
type Storage interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
}
