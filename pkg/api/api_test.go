package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyfold/pkg/pipeline"
	"github.com/matzehuels/storyfold/pkg/store"
)

const testStory = `digraph G{
  eoi="phos"
"node1" [label="Intro X", shape=rectangle, style=filled, fillcolor=white] ;
"node2" [label="bind", shape=invhouse, style=filled, fillcolor=lightblue] ;
"node3" [label="phos", shape=invhouse, style=filled, fillcolor=lightblue] ;
"node1" -> "node2" [weight=3] ;
"node2" -> "node3" [weight=3] ;
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	return NewServer(runner, store.NewMemoryStore(), FoldDefaults{Policy: "top"}, logger)
}

func postFold(t *testing.T, srv *Server, req FoldRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/fold", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestFoldAndRetrieve(t *testing.T) {
	srv := newTestServer(t)

	w := postFold(t, srv, FoldRequest{
		Stories: []string{testStory, testStory},
		Formats: []string{"dot", "json"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("fold status = %d: %s", w.Code, w.Body.String())
	}

	var resp FoldResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" || resp.Hash == "" {
		t.Error("response missing id or hash")
	}
	if resp.EOI != "phos" {
		t.Errorf("eoi = %q, want phos", resp.EOI)
	}
	if resp.Stories != 2 {
		t.Errorf("stories = %d, want 2", resp.Stories)
	}
	if !strings.Contains(string(resp.Artifacts["dot"]), "digraph") {
		t.Error("dot artifact missing or malformed")
	}

	// Retrieve by ID
	r := httptest.NewRequest(http.MethodGet, "/api/pathways/"+resp.ID, nil)
	w2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(w2, r)
	if w2.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", w2.Code, w2.Body.String())
	}
	var stored store.Pathway
	if err := json.Unmarshal(w2.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode pathway: %v", err)
	}
	if stored.Graph.Occurrence != 2 {
		t.Errorf("stored occurrence = %d, want 2", stored.Graph.Occurrence)
	}

	// List filtered by EOI
	r = httptest.NewRequest(http.MethodGet, "/api/pathways/?eoi=phos", nil)
	w3 := httptest.NewRecorder()
	srv.Router().ServeHTTP(w3, r)
	if w3.Code != http.StatusOK {
		t.Fatalf("list status = %d", w3.Code)
	}
	var listed []*store.Pathway
	if err := json.Unmarshal(w3.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("listed = %d, want 1", len(listed))
	}

	// Delete and verify gone
	r = httptest.NewRequest(http.MethodDelete, "/api/pathways/"+resp.ID, nil)
	w4 := httptest.NewRecorder()
	srv.Router().ServeHTTP(w4, r)
	if w4.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w4.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/pathways/"+resp.ID, nil)
	w5 := httptest.NewRecorder()
	srv.Router().ServeHTTP(w5, r)
	if w5.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", w5.Code)
	}
}

func TestFoldValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		req      FoldRequest
		wantCode int
		wantErr  string
	}{
		{
			name:     "NoStories",
			req:      FoldRequest{},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_INPUT",
		},
		{
			name:     "BadPolicy",
			req:      FoldRequest{Stories: []string{testStory}, Policy: "sideways"},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_POLICY",
		},
		{
			name:     "BadFormat",
			req:      FoldRequest{Stories: []string{testStory}, Formats: []string{"pdf"}},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_FORMAT",
		},
		{
			name:     "MalformedStory",
			req:      FoldRequest{Stories: []string{"digraph G{\n}"}},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_STORY",
		},
		{
			name:     "TraversalEOI",
			req:      FoldRequest{Stories: []string{testStory}, EOI: "../phos"},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_INPUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postFold(t, srv, tt.req)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantErr) {
				t.Errorf("body = %s, want code %s", w.Body.String(), tt.wantErr)
			}
		})
	}
}

func TestListInvalidLimit(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/pathways/?limit=banana", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
