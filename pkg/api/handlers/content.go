package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"chatrelay/pkg/store"
	"chatrelay/pkg/utils"
)

// contentKinds is the allowlist of admin-managed record collections.
var contentKinds = map[string]struct{}{
	"projects":   {},
	"blogs":      {},
	"promotions": {},
	"talent":     {},
	"leads":      {},
}

// RegisterContent mounts the admin content API on r. The gateway guarantees
// only admin-keyed requests reach these paths; the role check here is a
// second line for direct mounts in tests.
func RegisterContent(r *mux.Router, st store.ContentStore) {
	h := &contentHandlers{store: st}
	r.HandleFunc("/admin/content/{kind}", h.list).Methods(http.MethodGet)
	r.HandleFunc("/admin/content/{kind}/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/admin/content/{kind}/{id}", h.put).Methods(http.MethodPut)
	r.HandleFunc("/admin/content/{kind}/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/admin/stats", h.stats).Methods(http.MethodGet)
}

type contentHandlers struct {
	store store.ContentStore
}

func isAdmin(r *http.Request) bool {
	return r.Header.Get("X-Role-Name") == "admin"
}

func (h *contentHandlers) guard(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !isAdmin(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	kind := mux.Vars(r)["kind"]
	if _, ok := contentKinds[kind]; !ok {
		utils.JSONError(w, http.StatusNotFound, "unknown content kind")
		return "", false
	}
	return kind, true
}

func (h *contentHandlers) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.guard(w, r)
	if !ok {
		return
	}
	recs, err := h.store.List(kind)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "store error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "items": recs})
}

func (h *contentHandlers) get(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.guard(w, r)
	if !ok {
		return
	}
	rec, err := h.store.Get(kind, mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "item": rec})
}

func (h *contentHandlers) put(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.guard(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.store.Put(kind, id, body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (h *contentHandlers) delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.guard(w, r)
	if !ok {
		return
	}
	err := h.store.Delete(kind, mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true})
}

func (h *contentHandlers) stats(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	counts := map[string]int{}
	for kind := range contentKinds {
		recs, err := h.store.List(kind)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "store error")
			return
		}
		counts[kind] = len(recs)
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "counts": counts})
}
