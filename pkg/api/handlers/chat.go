package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/metrics"
	"chatrelay/pkg/relay"
	"chatrelay/pkg/utils"
)

// RegisterChat mounts the public chat endpoints on r.
func RegisterChat(r *mux.Router, svc *relay.Service) {
	h := &chatHandlers{svc: svc}
	r.HandleFunc("/chat/relay", h.relay).Methods(http.MethodPost)
	r.HandleFunc("/chat/poll", h.poll).Methods(http.MethodGet)
}

type chatHandlers struct {
	svc *relay.Service
}

type relayRequest struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
	PageURL   string `json:"pageUrl,omitempty"`
	Token     string `json:"token,omitempty"`
}

func (h *chatHandlers) relay(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RelayRequests.WithLabelValues("invalid").Inc()
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.svc.Relay(r.Context(), relay.RelayInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		Token:     req.Token,
		Timestamp: req.Timestamp,
		PageURL:   req.PageURL,
	})
	if err != nil {
		metrics.RelayRequests.WithLabelValues(outcome(err)).Inc()
		writeChatError(w, err)
		return
	}
	metrics.RelayRequests.WithLabelValues("ok").Inc()
	logger.Info("message_relayed", "session", req.SessionID, "thread", res.ThreadID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"success":  true,
		"token":    res.Token,
		"threadId": res.ThreadID,
	})
}

func (h *chatHandlers) poll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Poll(r.Context(), q.Get("token"), q.Get("cursor"))
	if err != nil {
		metrics.PollRequests.WithLabelValues(outcome(err)).Inc()
		writeChatError(w, err)
		return
	}
	metrics.PollRequests.WithLabelValues("ok").Inc()
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": res.Messages,
		"cursor":   res.Cursor,
	})
}

// writeChatError maps the relay error taxonomy onto the wire contract. Raw
// backend error text never reaches the client; only the classified reason
// does.
func writeChatError(w http.ResponseWriter, err error) {
	reason := relay.ReasonOf(err)
	switch relay.CodeOf(err) {
	case relay.CodeInvalidInput:
		utils.JSONError(w, http.StatusBadRequest, reason)
	case relay.CodeUnauthorized:
		utils.JSONError(w, http.StatusUnauthorized, reason)
	case relay.CodeNotConfigured:
		utils.JSONError(w, http.StatusInternalServerError, reason)
	case relay.CodeRetry:
		// transient: the client keeps polling on its normal schedule
		_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   reason,
			"retry":   true,
		})
	default:
		utils.JSONError(w, http.StatusBadGateway, reason)
	}
}

func outcome(err error) string {
	switch relay.CodeOf(err) {
	case relay.CodeInvalidInput:
		return "invalid"
	case relay.CodeUnauthorized:
		return "unauthorized"
	case relay.CodeNotConfigured:
		return "not_configured"
	case relay.CodeRetry:
		return "retry"
	default:
		return "unavailable"
	}
}
