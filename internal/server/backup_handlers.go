package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/reliability"
)

// BackupHandlers exposes manual backup operations
type BackupHandlers struct {
	backupService *reliability.BackupService
	log           zerolog.Logger
}

// NewBackupHandlers creates backup handlers
func NewBackupHandlers(backupService *reliability.BackupService, log zerolog.Logger) *BackupHandlers {
	return &BackupHandlers{
		backupService: backupService,
		log:           log.With().Str("handler", "backup").Logger(),
	}
}

// RegisterRoutes registers backup routes on the router
func (h *BackupHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/admin/backup", func(r chi.Router) {
		r.Post("/", h.HandleCreateBackup)
		r.Get("/", h.HandleListBackups)
	})
}

// HandleCreateBackup triggers an immediate backup upload
// POST /api/admin/backup
func (h *BackupHandlers) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.backupService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "Backup storage is not configured")
		return
	}

	name, err := h.backupService.CreateAndUploadBackup(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		writeError(w, http.StatusInternalServerError, "Backup failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"backup": name,
	})
}

// HandleListBackups lists stored backup archives, newest first
// GET /api/admin/backup
func (h *BackupHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.backupService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "Backup storage is not configured")
		return
	}

	backups, err := h.backupService.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		writeError(w, http.StatusInternalServerError, "Failed to list backups: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"count":   len(backups),
		"backups": backups,
	})
}
