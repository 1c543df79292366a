package devserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-erp-client/internal/errors"
)

const defaultPageSize = 50

type pageResponse struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []document `json:"results"`
}

func (s *Server) ListHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize, err := pagination(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, detail(err.Error()))
			return
		}

		offset := (page - 1) * pageSize
		results, total := s.data.list(tenantFrom(r.Context()), spec.path, offset, pageSize)
		resp := pageResponse{Count: total, Results: results}
		if offset+pageSize < total {
			resp.Next = pageLink(spec.path, page+1, pageSize)
		}
		if page > 1 {
			resp.Previous = pageLink(spec.path, page-1, pageSize)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func pagination(q url.Values) (int, int, error) {
	page, pageSize := 1, defaultPageSize
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid page %q", v)
		}
		page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return 0, 0, fmt.Errorf("invalid page_size %q", v)
		}
		pageSize = n
	}
	return page, pageSize, nil
}

func pageLink(path string, page, pageSize int) *string {
	link := fmt.Sprintf("%s?page=%d&page_size=%d", path, page, pageSize)
	return &link
}

func (s *Server) GetHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.data.get(tenantFrom(r.Context()), spec.path, r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, detail("Not found."))
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) CreateHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body document
		if err := decodeBody(w, r, &body); err != nil || body == nil {
			writeJSON(w, http.StatusBadRequest, detail("malformed JSON body"))
			return
		}
		delete(body, "id")
		delete(body, "status")

		if problems := spec.normalize(body); len(problems) > 0 {
			writeJSON(w, http.StatusBadRequest, problems)
			return
		}
		writeJSON(w, http.StatusCreated, s.data.create(tenantFrom(r.Context()), spec, body))
	}
}

// UpdateHandler serves PUT (merge false) and PATCH (merge true).
func (s *Server) UpdateHandler(spec collectionSpec, merge bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body document
		if err := decodeBody(w, r, &body); err != nil || body == nil {
			writeJSON(w, http.StatusBadRequest, detail("malformed JSON body"))
			return
		}

		d, problems, err := s.data.update(tenantFrom(r.Context()), spec, r.PathValue("id"), body, merge)
		switch {
		case errors.Is(err, errors.ErrNotFound):
			writeJSON(w, http.StatusNotFound, detail("Not found."))
		case len(problems) > 0:
			writeJSON(w, http.StatusBadRequest, problems)
		default:
			writeJSON(w, http.StatusOK, d)
		}
	}
}

func (s *Server) DeleteHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.data.delete(tenantFrom(r.Context()), spec.path, r.PathValue("id")); err != nil {
			writeJSON(w, http.StatusNotFound, detail("Not found."))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ActionHandler(spec collectionSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, problems, err := s.data.apply(tenantFrom(r.Context()), spec.path, r.PathValue("id"), r.PathValue("action"))
		switch {
		case errors.Is(err, errors.ErrNotFound):
			writeJSON(w, http.StatusNotFound, detail("Not found."))
		case len(problems) > 0:
			writeJSON(w, http.StatusBadRequest, problems)
		default:
			s.logger.Debug().
				Str("tenant", tenantFrom(r.Context())).
				Str("user_id", claimsFrom(r.Context()).Subject).
				Str("path", spec.path).
				Str("action", r.PathValue("action")).
				Msg("workflow action applied")
			writeJSON(w, http.StatusOK, d)
		}
	}
}
