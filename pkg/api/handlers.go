package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/storyfold/pkg/cache"
	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/causal/rank"
	"github.com/matzehuels/storyfold/pkg/errors"
	"github.com/matzehuels/storyfold/pkg/graph"
	"github.com/matzehuels/storyfold/pkg/pipeline"
	"github.com/matzehuels/storyfold/pkg/store"
)

// maxRequestBody caps fold request payloads at 32 MiB. Story batches
// are plain DOT text and rarely approach this.
const maxRequestBody = 32 << 20

// FoldRequest is the payload for POST /api/fold. Stories are inline
// DOT sources; options left empty fall back to the server defaults.
type FoldRequest struct {
	Stories   []string `json:"stories"`
	EOI       string   `json:"eoi,omitempty"`
	Policy    string   `json:"policy,omitempty"`
	Rerank    *bool    `json:"rerank,omitempty"`
	HideIntro *bool    `json:"hide_intro,omitempty"`
	Ignore    []string `json:"ignore,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`
}

// FoldResponse is the response for POST /api/fold. Artifact bytes are
// base64-encoded by JSON marshaling.
type FoldResponse struct {
	ID        string            `json:"id"`
	EOI       string            `json:"eoi"`
	Hash      string            `json:"hash"`
	Stories   int               `json:"stories"`
	Nodes     int               `json:"nodes"`
	Artifacts map[string][]byte `json:"artifacts"`
	CacheHit  bool              `json:"cache_hit"`
}

func (s *Server) handleFold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FoldRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Stories) == 0 {
		respondError(w, errors.New(errors.ErrCodeInvalidInput, "stories is required"))
		return
	}
	if req.EOI != "" {
		if err := errors.ValidateEOI(req.EOI); err != nil {
			respondError(w, err)
			return
		}
	}

	opts := s.foldOptions(req)
	if err := pipeline.ValidatePolicy(opts.Policy); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "validate policy"))
		return
	}
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "validate formats"))
		return
	}

	stories, err := pipeline.ParseSources(ctx, req.Stories, opts)
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidStory, err, "parse stories"))
		return
	}
	storyCount := len(stories)

	pathway, cacheHit, err := s.runner.FoldWithCacheInfo(ctx, stories, opts)
	if err != nil {
		respondError(w, classifyFoldError(err))
		return
	}

	artifacts, err := s.runner.Render(ctx, pathway, opts)
	if err != nil {
		respondError(w, err)
		return
	}

	data, err := graph.MarshalGraph(pathway)
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "marshal pathway"))
		return
	}
	hash := cache.Hash(data)

	record := &store.Pathway{
		EOI:     pathway.EOI,
		Policy:  opts.Policy,
		Hash:    hash,
		Stories: storyCount,
		Graph:   graph.FromCausal(pathway),
	}
	if err := s.store.Save(ctx, record); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FoldResponse{
		ID:        record.ID,
		EOI:       pathway.EOI,
		Hash:      hash,
		Stories:   storyCount,
		Nodes:     len(pathway.Nodes),
		Artifacts: artifacts,
		CacheHit:  cacheHit,
	})
}

// classifyFoldError attaches a structured code to the sentinel errors
// the folding engine reports, so clients see 422 instead of 500.
func classifyFoldError(err error) error {
	switch {
	case stderrors.Is(err, rank.ErrNotSeedable):
		return errors.Wrap(errors.ErrCodeNotSeedable, err, "fold stories")
	case stderrors.Is(err, causal.ErrPathBudget):
		return errors.Wrap(errors.ErrCodePathBudget, err, "fold stories")
	case stderrors.Is(err, causal.ErrEmptyStatistics):
		return errors.Wrap(errors.ErrCodeEmptyStatistics, err, "fold stories")
	default:
		return err
	}
}

// foldOptions merges a request with the server-side fold defaults.
func (s *Server) foldOptions(req FoldRequest) pipeline.Options {
	opts := pipeline.Options{
		EOI:          req.EOI,
		Policy:       req.Policy,
		Rerank:       s.fold.Rerank,
		HideIntro:    s.fold.HideIntro,
		Ignore:       req.Ignore,
		Formats:      req.Formats,
		Refresh:      req.Refresh,
		ReduceBudget: s.fold.ReduceBudget,
	}
	if opts.Policy == "" {
		opts.Policy = s.fold.Policy
	}
	if req.Rerank != nil {
		opts.Rerank = *req.Rerank
	}
	if req.HideIntro != nil {
		opts.HideIntro = *req.HideIntro
	}
	if len(opts.Ignore) == 0 {
		opts.Ignore = s.fold.Ignore
	}
	return opts
}

func (s *Server) handleListPathways(w http.ResponseWriter, r *http.Request) {
	eoi := r.URL.Query().Get("eoi")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	pathways, err := s.store.List(r.Context(), eoi, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if pathways == nil {
		pathways = []*store.Pathway{}
	}
	respondJSON(w, http.StatusOK, pathways)
}

func (s *Server) handleGetPathway(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePathway(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
