package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/pkg/bind"
	"github.com/mercadobetel/pdv/pkg/response"
	"github.com/mercadobetel/pdv/pkg/storage"
)

// BackupController exports, imports and clears the whole dataset.
type BackupController struct {
	backups *services.BackupService
	dst     storage.Store
	now     func() time.Time
}

// NewBackupController serves backups; dst is where on-demand and scheduled
// backup files are kept.
func NewBackupController(backups *services.BackupService, dst storage.Store, now func() time.Time) *BackupController {
	if now == nil {
		now = time.Now
	}
	return &BackupController{backups: backups, dst: dst, now: now}
}

// Export downloads the backup document.
func (c *BackupController) Export(w http.ResponseWriter, _ *http.Request) {
	data, err := c.backups.Export()
	if err != nil {
		response.FromError(w, err)
		return
	}
	name := fmt.Sprintf("backup-mercado-betel-%s.json", c.now().Format(time.DateOnly))
	response.Attachment(w, name, "application/json", data)
}

// Import replaces the collections present in the uploaded document.
func (c *BackupController) Import(w http.ResponseWriter, r *http.Request) {
	data, err := bind.Body(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	err = c.backups.Import(data)
	if err != nil && !models.IsStorage(err) {
		response.FromError(w, err)
		return
	}
	info, _ := c.backups.Info()
	response.Saved(w, http.StatusOK, info, err)
}

// Clear erases everything. The body must carry both confirmations and the
// typed phrase.
func (c *BackupController) Clear(w http.ResponseWriter, r *http.Request) {
	var req services.Confirmation
	if !decode(w, r, &req) {
		return
	}
	done(w, c.backups.ClearAll(req))
}

func (c *BackupController) Info(w http.ResponseWriter, _ *http.Request) {
	info, err := c.backups.Info()
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, info)
}

// Reload re-reads the collections from the store.
func (c *BackupController) Reload(w http.ResponseWriter, _ *http.Request) {
	if err := c.backups.Reload(); err != nil {
		response.FromError(w, err)
		return
	}
	info, _ := c.backups.Info()
	response.Success(w, info)
}

// Snapshot writes a dated backup file to the backup store now.
func (c *BackupController) Snapshot(w http.ResponseWriter, _ *http.Request) {
	key, err := c.backups.WriteBackup(c.dst)
	if models.IsStorage(err) {
		response.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]string{"key": key})
}

// List names the backup files held in the backup store.
func (c *BackupController) List(w http.ResponseWriter, _ *http.Request) {
	keys, err := c.backups.Backups(c.dst)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	response.Success(w, keys)
}
