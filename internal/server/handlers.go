package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/internal/relate"
	"github.com/hiro0218/kanren/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not built yet")
		return
	}
	query := r.URL.Query().Get("q")
	s.logger.Debug("search request", zap.String("query", query))

	results := snap.search.Search(query)
	if results == nil {
		results = []models.SearchResultItem{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleRelatedPosts(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not built yet")
		return
	}
	slug := chi.URLParam(r, "slug")
	related, ok := snap.relatedPosts[slug]
	if !ok {
		s.respondError(w, http.StatusNotFound, "no related posts for slug")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"slug":    slug,
		"related": related,
	})
}

func (s *Server) handleRelatedTags(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not built yet")
		return
	}
	tag := chi.URLParam(r, "tag")
	row, ok := snap.relatedTags[tag]
	if !ok {
		s.respondError(w, http.StatusNotFound, "no related tags for tag")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tag":     tag,
		"related": relate.SortedRelated(row),
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("rebuild request")
	if err := s.Reload(r.Context()); err != nil {
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap := s.snapshot()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "rebuilt",
		"run_id":    snap.runID,
		"documents": snap.documentCount,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	resp := map[string]interface{}{
		"ready": snap != nil,
	}
	if snap != nil {
		resp["documents"] = snap.documentCount
		resp["run_id"] = snap.runID
		resp["built_at"] = snap.builtAt
		resp["tags_with_relations"] = len(snap.relatedTags)
	}

	diskBytes, err := storage.DiskUsageBytes(s.config.Output.Dir, s.config.Corpus.DatabasePath)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
