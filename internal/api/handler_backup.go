package api

import (
	"context"
	"net/http"

	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

const modifiedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type BackupService interface {
	Execute(ctx context.Context, trigger domain.Trigger) (domain.BackupFile, error)
	Restore(ctx context.Context) (domain.BackupFile, error)
	List(ctx context.Context) ([]domain.BackupFile, error)
}

type BackupHandler struct {
	logger  *logger.Logger
	backups BackupService
}

func NewBackupHandler(log *logger.Logger, backups BackupService) *BackupHandler {
	return &BackupHandler{logger: log, backups: backups}
}

type fileResponse struct {
	OK   bool   `json:"ok"`
	File string `json:"file"`
}

type backupListEntry struct {
	File       string `json:"file"`
	ModifiedAt string `json:"modifiedAt"`
}

// Trigger and Restore detach from the request: a client that goes away must
// not kill the tool halfway. backup.timeout still bounds the run.
func (h *BackupHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	file, err := h.backups.Execute(context.WithoutCancel(r.Context()), domain.TriggerManual)
	if err != nil {
		log.Errorf("POST /api/trigger-backup: %v", err)
		writeError(w, log, "Failed to create backup", err)
		return
	}

	log.Infof("Backup saved to %s", file.Path)
	writeJSON(w, log, http.StatusOK, fileResponse{OK: true, File: file.Name})
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	file, err := h.backups.Restore(context.WithoutCancel(r.Context()))
	if err != nil {
		log.Errorf("POST /api/trigger-restore: %v", err)
		writeError(w, log, "Failed to restore backup", err)
		return
	}

	log.Infof("Backup restored from %s", file.Path)
	writeJSON(w, log, http.StatusOK, fileResponse{OK: true, File: file.Name})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	files, err := h.backups.List(r.Context())
	if err != nil {
		log.Errorf("GET /api/backups: %v", err)
		writeError(w, log, "Failed to list backups", err)
		return
	}

	result := make([]backupListEntry, 0, len(files))
	for _, f := range files {
		result = append(result, backupListEntry{
			File:       f.Name,
			ModifiedAt: f.ModifiedAt.UTC().Format(modifiedAtLayout),
		})
	}

	writeJSON(w, log, http.StatusOK, result)
}
