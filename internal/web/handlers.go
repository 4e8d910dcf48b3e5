package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/sanctions/internal/logging"
	"github.com/JonMunkholm/sanctions/internal/web/templates"
)

// maxBodyBytes bounds a POST /api/screen body.
const maxBodyBytes = 4 << 20

// ScreenResult is the API form of one screened name.
type ScreenResult struct {
	Query       string `json:"query"`
	Matched     bool   `json:"matched"`
	MatchName   string `json:"match_name"`
	MatchSchema string `json:"match_schema"`
	EntityID    string `json:"entity_id"`
}

// BatchRequest is the body of POST /api/screen.
type BatchRequest struct {
	Names []string `json:"names"`
}

// BatchResponse answers POST /api/screen. Results are in request order.
type BatchResponse struct {
	Results []ScreenResult `json:"results"`
	Matched int            `json:"matched"`
}

func (s *Server) screen(query string) ScreenResult {
	res := ScreenResult{Query: query}
	if hit, ok := s.index.Match(query); ok {
		res.Matched = true
		res.MatchName = hit.Name
		res.MatchSchema = string(hit.Schema)
		res.EntityID = hit.ID
	}
	return res
}

// handleHealth reports liveness and the index size.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"entities": s.index.Len(),
	})
}

// handleScreen screens the "name" query parameter. A missing or blank name
// is not an error; it never matches.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.screen(r.URL.Query().Get("name")))
}

// handleScreenBatch screens every name of a BatchRequest.
func (s *Server) handleScreenBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request: decode body: %w", err), http.StatusBadRequest)
		return
	}
	if s.cfg.MaxBatch > 0 && len(req.Names) > s.cfg.MaxBatch {
		s.respondError(w, r, fmt.Errorf("invalid request: %d names exceeds limit of %d", len(req.Names), s.cfg.MaxBatch), http.StatusBadRequest)
		return
	}

	resp := BatchResponse{Results: make([]ScreenResult, 0, len(req.Names))}
	for _, name := range req.Names {
		res := s.screen(name)
		if res.Matched {
			resp.Matched++
		}
		resp.Results = append(resp.Results, res)
	}

	logging.FromContext(r.Context()).Info("batch screened", "names", len(req.Names), "matched", resp.Matched)
	writeJSON(w, r, http.StatusOK, resp)
}

// handlePage renders the screening form, with a result when ?name= is set.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := templates.ScreenPage{Entities: s.index.Len()}

	if r.URL.Query().Has("name") {
		query := r.URL.Query().Get("name")
		res := s.screen(query)
		page.Query = query
		page.Result = &templates.ScreenResult{
			Query:       res.Query,
			Matched:     res.Matched,
			MatchName:   res.MatchName,
			MatchSchema: res.MatchSchema,
			EntityID:    res.EntityID,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}
