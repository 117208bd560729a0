package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/wealthfolio/src/services"
	"github.com/username/wealthfolio/src/utils"
)

type SyncHandler struct {
	syncService services.SyncService
}

func NewSyncHandler(syncService services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// HandleGetSyncStatus reports whether a remote mirror is configured.
func (h *SyncHandler) HandleGetSyncStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"enabled": h.syncService.Enabled()})
}

// HandlePullSync re-reads every mirrored sheet and merges it into local
// state, same as the startup pull.
func (h *SyncHandler) HandlePullSync(w http.ResponseWriter, r *http.Request) {
	if !h.syncService.Enabled() {
		utils.SendJSONError(w, "Remote sync is not configured", http.StatusConflict)
		return
	}
	h.syncService.PullAll()
	w.WriteHeader(http.StatusNoContent)
}

// HandleFlushSync pushes any debounced writes immediately instead of waiting
// for the quiet period.
func (h *SyncHandler) HandleFlushSync(w http.ResponseWriter, r *http.Request) {
	if !h.syncService.Enabled() {
		utils.SendJSONError(w, "Remote sync is not configured", http.StatusConflict)
		return
	}
	h.syncService.Flush()
	w.WriteHeader(http.StatusNoContent)
}
