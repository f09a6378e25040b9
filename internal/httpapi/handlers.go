package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: RequestIDFrom(r.Context())}
	var loadErr *pagination.LoadError
	if errors.As(err, &loadErr) {
		resp.Op = loadErr.Op
		resp.Page = loadErr.Page
	}
	writeJSON(w, status, resp)
}

// requireKnownType rejects brewery types the directory does not define.
func requireKnownType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := chi.URLParam(r, "type")
		if !brewery.IsKnownType(t) {
			writeError(w, r, http.StatusBadRequest, errors.New("unknown brewery type "+t))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ReadyTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Store not ready")
			writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, typesResponse{Types: brewery.Types()})
}

func (s *Server) handleStreams(w http.ResponseWriter, _ *http.Request) {
	types := s.registry.Types()
	if types == nil {
		types = []string{}
	}
	writeJSON(w, http.StatusOK, typesResponse{Types: types})
}

// handlePage loads one page directly through a paging source.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	breweryType := chi.URLParam(r, "type")
	q, err := s.parsePageQuery(chi.URLParam(r, "page"), r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	page, err := s.repo.PagingSource(breweryType).Load(r.Context(), pagination.LoadParams{
		Key:      &q.Page,
		LoadSize: q.PerPage,
	})
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(breweryType, page))
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.ClearCache(r.Context(), chi.URLParam(r, "type")); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	pager := s.registry.GetOrCreateStream(chi.URLParam(r, "type"))
	writeJSON(w, http.StatusOK, newSnapshotResponse(pager.Snapshot()))
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	s.handleDemand(w, r, (*pagination.Pager).Append)
}

func (s *Server) handlePrepend(w http.ResponseWriter, r *http.Request) {
	s.handleDemand(w, r, (*pagination.Pager).Prepend)
}

func (s *Server) handleDemand(w http.ResponseWriter, r *http.Request, demand func(*pagination.Pager, context.Context) (pagination.Event, error)) {
	pager := s.registry.GetOrCreateStream(chi.URLParam(r, "type"))

	ev, err := demand(pager, r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newEventResponse(ev))
	case errors.Is(err, pagination.ErrEndOfPagination), errors.Is(err, pagination.ErrNoPreviousPage):
		writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, pagination.ErrClosed):
		writeError(w, r, http.StatusServiceUnavailable, err)
	default:
		// The failed load is part of the stream; return its event.
		writeJSON(w, http.StatusBadGateway, newEventResponse(ev))
	}
}

func (s *Server) handleBrewery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("brewery id must be a UUID"))
		return
	}

	b, err := s.repo.BreweryByID(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err)
		return
	}
	if b == nil {
		writeError(w, r, http.StatusNotFound, brewery.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newBreweryResponse(*b))
}
