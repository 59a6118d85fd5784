package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/metrics"
	"chatrelay/pkg/models"
	"chatrelay/pkg/notify"
	"chatrelay/pkg/store"
	"chatrelay/pkg/utils"
)

// RegisterLeads mounts the lead-capture endpoint on r.
func RegisterLeads(r *mux.Router, st store.ContentStore, n notify.Notifier) {
	h := &leadHandlers{store: st, notifier: n}
	r.HandleFunc("/leads", h.create).Methods(http.MethodPost)
}

type leadHandlers struct {
	store    store.ContentStore
	notifier notify.Notifier
}

// create validates a lead, archives it, and forwards it to the operator
// channel. Archiving is best effort: a store failure is logged but does not
// lose the notification.
func (h *leadHandlers) create(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		metrics.LeadRequests.WithLabelValues("invalid").Inc()
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := lead.Validate(); err != nil {
		metrics.LeadRequests.WithLabelValues("invalid").Inc()
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	lead.ID = utils.GenLeadID()
	lead.ReceivedTS = time.Now().UTC().Format(time.RFC3339)

	if data, err := json.Marshal(lead); err == nil {
		if err := h.store.Put("leads", lead.ID, data); err != nil {
			logger.Warn("lead_archive_failed", "id", lead.ID, "err", err.Error())
		}
	}

	if err := h.notifier.Notify(r.Context(), lead.Notification()); err != nil {
		metrics.LeadRequests.WithLabelValues("notify_failed").Inc()
		utils.JSONError(w, http.StatusBadGateway, "could not deliver your message, please try again")
		return
	}

	metrics.LeadRequests.WithLabelValues("ok").Inc()
	logger.Info("lead_received", "id", lead.ID, "source", lead.Source)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "id": lead.ID})
}
