package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yomogi/seiri/internal/models"
	"github.com/yomogi/seiri/internal/stats"
	"github.com/yomogi/seiri/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))

	start := time.Now()
	hits, err := s.index.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := &models.SearchResponse{
		Query:   query.Query,
		Results: make([]*models.SearchResult, 0, len(hits)),
	}
	for _, hit := range hits {
		tweet, err := s.storage.GetTweet(r.Context(), hit.ID)
		if err != nil {
			// Index and store can drift between runs; skip orphaned hits.
			s.logger.Warn("indexed tweet missing from store", zap.String("id", hit.ID))
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Tweet: tweet,
			Score: hit.Score,
			Rank:  len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	response.QueryTime = time.Since(start).Milliseconds()
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetTweet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tweet, err := s.storage.GetTweet(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "tweet not found")
		return
	}
	s.respondJSON(w, http.StatusOK, tweet)
}

// handleStats recomputes the summary over the stored tweets. The store is
// the source of truth here, not the summary_stats.json written at process
// time, so the endpoint stays correct after partial re-runs.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.storage.CountTweets(ctx)
	if err != nil {
		s.logger.Error("stats: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tweets, err := s.storage.ListTweets(ctx, 0, int(count))
	if err != nil {
		s.logger.Error("stats: list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats.Summarize(tweets))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.storage.CountTweets(ctx)
	if err != nil {
		s.logger.Error("status: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	indexed, err := s.index.DocCount()
	if err != nil {
		s.logger.Error("status: doc count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"tweets":  count,
		"indexed": indexed,
	}
	if run, err := s.storage.LastRun(ctx); err == nil && run != nil {
		resp["last_run"] = run
	}
	if diskBytes, err := storage.DiskUsageBytes(
		s.cfg.Storage.DatabasePath, s.cfg.Storage.BleveIndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
