package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/playlist-curator/internal/catalog"
	"github.com/justestif/playlist-curator/internal/classifier"
	"github.com/justestif/playlist-curator/internal/curator"
	"github.com/justestif/playlist-curator/internal/db"
	"github.com/justestif/playlist-curator/internal/labels"
	"github.com/justestif/playlist-curator/internal/playlist"
	"github.com/justestif/playlist-curator/internal/spotify"
)

// countingClassifier returns fixed scores and counts calls.
type countingClassifier struct {
	scores classifier.Scores
	err    error
	calls  atomic.Int32
}

func (c *countingClassifier) Classify(ctx context.Context, prompt string, labels []string) (classifier.Scores, error) {
	c.calls.Add(1)
	return c.scores, c.err
}

type fakeExporter struct {
	err       error
	gotToken  string
	gotName   string
	gotDesc   string
	gotTracks []string
}

func (f *fakeExporter) UserID(ctx context.Context, token string) (string, error) {
	f.gotToken = token
	if f.err != nil {
		return "", f.err
	}
	return "user1", nil
}

func (f *fakeExporter) Export(ctx context.Context, token, name, description string, trackIDs []string) (*spotify.Playlist, error) {
	f.gotToken, f.gotName, f.gotDesc, f.gotTracks = token, name, description, trackIDs
	if f.err != nil {
		return nil, f.err
	}
	return &spotify.Playlist{
		ID:         "pl1",
		URL:        "https://open.spotify.com/playlist/pl1",
		OwnerID:    "user1",
		TrackCount: len(trackIDs),
	}, nil
}

type fakeStore struct {
	created []db.Curation
	err     error
}

func (s *fakeStore) Create(ctx context.Context, c *db.Curation) error {
	if s.err != nil {
		return s.err
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.created = append(s.created, *c)
	return nil
}

func (s *fakeStore) ListForUser(ctx context.Context, userID string, limit int) ([]db.Curation, error) {
	var out []db.Curation
	for _, c := range s.created {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, s.err
}

type fixture struct {
	handler    http.Handler
	classifier *countingClassifier
	exporter   *fakeExporter
	store      *fakeStore
}

func newFixture(t *testing.T, scores classifier.Scores, withStore bool) *fixture {
	t.Helper()

	lc, err := labels.NewCatalog([]labels.Label{
		{Name: "happy", Kind: labels.KindRange, Range: &labels.Range{Column: "valence", Min: 0.6, Max: 1.0}},
		{Name: "acoustic", Kind: labels.KindGenre},
	})
	require.NoError(t, err)

	tc := catalog.New([]catalog.Track{
		{ID: "T1", Genres: []string{"acoustic", "folk"}, Features: map[string]float64{"valence": 0.8}},
		{ID: "T2", Genres: []string{"rock"}, Features: map[string]float64{"valence": 0.9}},
		{ID: "T3", Genres: []string{"acoustic"}, Features: map[string]float64{"valence": 0.3}},
	})

	f := &fixture{
		classifier: &countingClassifier{scores: scores},
		exporter:   &fakeExporter{},
	}
	cfg := HandlersConfig{
		Curator:    curator.New(lc, f.classifier, playlist.New(lc, tc, playlist.Options{}), curator.DefaultConfig(), nil),
		TrackCount: tc.Len(),
		Exporter:   f.exporter,
	}
	if withStore {
		f.store = &fakeStore{}
		cfg.Store = f.store
	}

	f.handler = NewServer(ServerConfig{}, NewHandlers(cfg)).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestClassifyAny(t *testing.T) {
	f := newFixture(t, classifier.Scores{"happy": 0.97, "acoustic": 0.2}, false)

	rec, body := f.do(t, http.MethodPost, "/api/classify",
		`{"text":"something upbeat","song_list":["T1","T2","T3","T4"]}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []any{"T1", "T2"}, body["tracks"])
	assert.Equal(t, []any{"happy"}, body["labels"])
	assert.Equal(t, "any", body["policy"])
}

func TestClassifyTrailingSlash(t *testing.T) {
	f := newFixture(t, classifier.Scores{"happy": 0.97, "acoustic": 0.2}, false)

	rec, body := f.do(t, http.MethodPost, "/api/classify/", `{"text":"upbeat","song_list":["T1"]}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"T1"}, body["tracks"])
}

func TestClassifyIgnoresContentType(t *testing.T) {
	f := newFixture(t, classifier.Scores{"happy": 1, "acoustic": 1}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"text":"","song_list":["T1"]}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No text provided"}`, rec.Body.String())
	assert.Equal(t, int32(0), f.classifier.calls.Load())

	req = httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`text=upbeat`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestUnmatchedRoutesAnswerJSON(t *testing.T) {
	f := newFixture(t, nil, false)

	tests := []struct {
		method, path string
		wantStatus   int
	}{
		{http.MethodGet, "/api/nothing", http.StatusNotFound},
		{http.MethodGet, "/nothing", http.StatusNotFound},
		{http.MethodGet, "/api/classify", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/playlists", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, body := f.do(t, tt.method, tt.path, "", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestClassifyAll(t *testing.T) {
	f := newFixture(t, classifier.Scores{"happy": 0.99, "acoustic": 0.99}, false)

	rec, body := f.do(t, http.MethodPost, "/api/classify",
		`{"text":"happy acoustic","song_list":["T1","T2","T3"],"policy":"all"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"T1"}, body["tracks"])
}

func TestClassifyEmptyResultIsArray(t *testing.T) {
	f := newFixture(t, classifier.Scores{"happy": 0.1, "acoustic": 0.1}, false)

	rec, _ := f.do(t, http.MethodPost, "/api/classify", `{"text":"x","song_list":["T1"]}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tracks":[],"labels":[],"policy":"any"}`, rec.Body.String())
}

func TestClassifyNoText(t *testing.T) {
	bodies := []string{
		`{"text":"","song_list":["T1"]}`,
		`{"text":"   ","song_list":["T1"]}`,
		`{"song_list":["T1"]}`,
		``,
	}

	for _, b := range bodies {
		f := newFixture(t, classifier.Scores{"happy": 1, "acoustic": 1}, false)

		rec, _ := f.do(t, http.MethodPost, "/api/classify", b, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, b)
		assert.JSONEq(t, `{"error":"No text provided"}`, rec.Body.String())
		assert.Equal(t, int32(0), f.classifier.calls.Load(), "classifier must not be called")
	}
}

func TestClassifyBadRequests(t *testing.T) {
	f := newFixture(t, classifier.Scores{"happy": 1, "acoustic": 1}, false)

	rec, body := f.do(t, http.MethodPost, "/api/classify", `{"text":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid JSON body")

	rec, body = f.do(t, http.MethodPost, "/api/classify", `{"text":"x","policy":"most"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "most")

	assert.Equal(t, int32(0), f.classifier.calls.Load())
}

func TestClassifyClassifierFailure(t *testing.T) {
	f := newFixture(t, nil, false)
	f.classifier.err = errors.New("model unavailable")

	rec, body := f.do(t, http.MethodPost, "/api/classify", `{"text":"x","song_list":["T1"]}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "model unavailable")
}

func TestLabels(t *testing.T) {
	f := newFixture(t, nil, false)

	rec, _ := f.do(t, http.MethodGet, "/api/labels", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"labels":[
		{"name":"happy","kind":"range","column":"valence","min":0.6,"max":1},
		{"name":"acoustic","kind":"genre"}
	]}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, false)

	rec, _ := f.do(t, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","tracks":3,"labels":2}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil, false)

	rec, _ := f.do(t, http.MethodOptions, "/api/classify", "", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestExportPlaylist(t *testing.T) {
	f := newFixture(t, nil, true)

	rec, body := f.do(t, http.MethodPost, "/api/playlists",
		`{"name":"Sunny","prompt":"sunny and bright","policy":"any","tracks":["T1","T2"]}`, "user-token")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "pl1", body["id"])
	assert.Equal(t, "https://open.spotify.com/playlist/pl1", body["url"])
	assert.Equal(t, float64(2), body["track_count"])

	assert.Equal(t, "user-token", f.exporter.gotToken)
	assert.Equal(t, "Sunny", f.exporter.gotName)
	assert.Equal(t, "Collection of songs that are sunny and bright, carefully chosen by Playlist Curator.", f.exporter.gotDesc)
	assert.Equal(t, []string{"T1", "T2"}, f.exporter.gotTracks)

	require.Len(t, f.store.created, 1)
	assert.Equal(t, "user1", f.store.created[0].UserID)
	assert.Equal(t, "sunny and bright", f.store.created[0].Prompt)
	assert.Equal(t, 2, f.store.created[0].TrackCount)
}

func TestExportPlaylistErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		token      string
		exportErr  error
		wantStatus int
	}{
		{"missing token", `{"name":"x","tracks":["T1"]}`, "", nil, http.StatusUnauthorized},
		{"missing name", `{"name":" ","tracks":["T1"]}`, "tok", nil, http.StatusBadRequest},
		{"missing tracks", `{"name":"x","tracks":[]}`, "tok", nil, http.StatusBadRequest},
		{"malformed body", `{"name":`, "tok", nil, http.StatusBadRequest},
		{"spotify failure", `{"name":"x","tracks":["T1"]}`, "tok", errors.New("401 Invalid access token"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, true)
			f.exporter.err = tt.exportErr

			rec, body := f.do(t, http.MethodPost, "/api/playlists", tt.body, tt.token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, body["error"])
			assert.Empty(t, f.store.created)
		})
	}
}

func TestExportStillSucceedsWhenRecordingFails(t *testing.T) {
	f := newFixture(t, nil, true)
	f.store.err = errors.New("db down")

	rec, _ := f.do(t, http.MethodPost, "/api/playlists", `{"name":"x","tracks":["T1"]}`, "tok")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Carefully chosen by Playlist Curator.", f.exporter.gotDesc)
}

func TestListPlaylists(t *testing.T) {
	f := newFixture(t, nil, true)

	rec, _ := f.do(t, http.MethodPost, "/api/playlists", `{"name":"x","prompt":"calm","tracks":["T1"]}`, "tok")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := f.do(t, http.MethodGet, "/api/playlists", "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)

	curations, ok := body["curations"].([]any)
	require.True(t, ok)
	require.Len(t, curations, 1)

	first := curations[0].(map[string]any)
	assert.Equal(t, "pl1", first["playlist_id"])
	assert.Equal(t, "calm", first["prompt"])
	assert.Equal(t, "2026-01-02T03:04:05Z", first["created_at"])
}

func TestListPlaylistsWithoutStore(t *testing.T) {
	f := newFixture(t, nil, false)

	rec, _ := f.do(t, http.MethodGet, "/api/playlists", "", "tok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"curations":[]}`, rec.Body.String())

	rec, _ = f.do(t, http.MethodGet, "/api/playlists", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", tt.header)

		got, ok := bearerToken(r)
		assert.Equal(t, tt.want, got, tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
	}
}
