package mockapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-learn-admin/mockapi/content"
)

func (s *Server) ListHandler(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.content.List(collection)
		if err != nil {
			s.writeContentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) GetHandler(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		item, err := s.content.Get(collection, id)
		if err != nil {
			s.writeContentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) CreateHandler(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body content.Item
		if err := decodeJSON(r, &body); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}
		item, err := s.content.Create(collection, body)
		if err != nil {
			s.writeContentError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func (s *Server) ReplaceHandler(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var body content.Item
		if err := decodeJSON(r, &body); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}
		item, err := s.content.Replace(collection, id, body)
		if err != nil {
			s.writeContentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) PatchHandler(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var body content.Item
		if err := decodeJSON(r, &body); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error.")
			return
		}
		item, err := s.content.Patch(collection, id, body)
		if err != nil {
			s.writeContentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) DeleteHandler(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.content.Delete(collection, id); err != nil {
			s.writeContentError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func (s *Server) writeContentError(w http.ResponseWriter, err error) {
	var fieldErrs content.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeFieldErrors(w, fieldErrs)
	case errors.Is(err, content.ErrNotFound), errors.Is(err, content.ErrUnknownCollection):
		writeDetail(w, http.StatusNotFound, "Not found.")
	default:
		s.logger.Error().Err(err).Msg("content store")
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}
