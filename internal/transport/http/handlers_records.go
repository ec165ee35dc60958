package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/service"
)

// records serves the CRUD routes of one record type.
type records[T domain.Entity] struct {
	s         *Server
	svc       *service.Foundation[T]
	present   func(*T) *T
	anonymous func(*T)
}

// mountRecords registers list, get, add, modify and remove under path. Every route
// requires a token, except add when anonymous is set: a caller without a token may then
// add, and anonymous rewrites the record first.
func mountRecords[T domain.Entity](
	r chi.Router,
	s *Server,
	path string,
	svc *service.Foundation[T],
	present func(*T) *T,
	anonymous func(*T),
) {
	if present == nil {
		present = func(record *T) *T { return record }
	}
	h := records[T]{s: s, svc: svc, present: present, anonymous: anonymous}

	protected := r.With(s.authMiddleware)
	protected.Get(path, h.list)
	protected.Get(path+"/{id}", h.get)
	protected.Put(path, h.modify)
	protected.Delete(path+"/{id}", h.remove)
	if anonymous != nil {
		r.With(s.optionalAuthMiddleware).Post(path, h.add)
	} else {
		protected.Post(path, h.add)
	}
}

func (h records[T]) list(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "$skip", 0)
	if err != nil {
		h.s.writeError(w, err)
		return
	}
	top, err := queryInt(r, "$top", -1)
	if err != nil {
		h.s.writeError(w, err)
		return
	}

	items, err := h.svc.RetrieveAll(r.Context()).Skip(skip).Take(top).Collect(r.Context())
	if err != nil {
		h.s.writeError(w, err)
		return
	}

	out := make([]*T, 0, len(items))
	for _, item := range items {
		out = append(out, h.present(item))
	}
	h.s.writeJSON(w, http.StatusOK, out)
}

func (h records[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.s.writeError(w, err)
		return
	}

	record, err := h.svc.RetrieveByID(r.Context(), id)
	if err != nil {
		h.s.writeError(w, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, h.present(record))
}

func (h records[T]) add(w http.ResponseWriter, r *http.Request) {
	record := new(T)
	if err := h.s.readJSON(r, record); err != nil {
		h.s.writeError(w, err)
		return
	}
	if h.anonymous != nil && getUserClaims(r.Context()) == nil {
		h.anonymous(record)
	}

	stored, err := h.svc.Add(r.Context(), record)
	if err != nil {
		h.s.writeError(w, err)
		return
	}
	h.s.writeJSON(w, http.StatusCreated, h.present(stored))
}

func (h records[T]) modify(w http.ResponseWriter, r *http.Request) {
	record := new(T)
	if err := h.s.readJSON(r, record); err != nil {
		h.s.writeError(w, err)
		return
	}

	updated, err := h.svc.Modify(r.Context(), record)
	if err != nil {
		h.s.writeError(w, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, h.present(updated))
}

func (h records[T]) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.s.writeError(w, err)
		return
	}

	removed, err := h.svc.RemoveByID(r.Context(), id)
	if err != nil {
		h.s.writeError(w, err)
		return
	}
	h.s.writeJSON(w, http.StatusOK, h.present(removed))
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ValidationError{Field: "id", Message: "invalid id"}
	}
	return id, nil
}

// queryInt reads a non-negative paging parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ValidationError{Field: key, Message: "must be a non-negative integer"}
	}
	return n, nil
}
