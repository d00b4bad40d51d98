package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/playlist-curator/internal/curator"
	"github.com/justestif/playlist-curator/internal/db"
	"github.com/justestif/playlist-curator/internal/labels"
	"github.com/justestif/playlist-curator/internal/spotify"
)

const (
	maxBodyBytes = 1 << 20

	errNoText   = "No text provided"
	errNoToken  = "Missing bearer token"
	errNoName   = "No playlist name provided"
	errNoTracks = "No tracks provided"
	errSpotify  = "Spotify request failed"
)

// Curator turns a prompt and candidate list into a filtered playlist.
type Curator interface {
	Curate(ctx context.Context, req curator.Request) (*curator.Result, error)
	Labels() *labels.Catalog
}

// Exporter creates playlists for the owner of a Spotify access token.
type Exporter interface {
	UserID(ctx context.Context, accessToken string) (string, error)
	Export(ctx context.Context, accessToken, name, description string, trackIDs []string) (*spotify.Playlist, error)
}

// CurationStore records exported playlists.
type CurationStore interface {
	Create(ctx context.Context, c *db.Curation) error
	ListForUser(ctx context.Context, userID string, limit int) ([]db.Curation, error)
}

// Handlers contains HTTP handlers for the curation API.
type Handlers struct {
	curator    Curator
	trackCount int
	exporter   Exporter
	store      CurationStore // nil disables export history
	log        *zap.Logger
}

// HandlersConfig holds the collaborators of Handlers.
type HandlersConfig struct {
	Curator    Curator
	TrackCount int // Size of the loaded track catalog, reported by /healthz
	Exporter   Exporter
	Store      CurationStore
	Logger     *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg HandlersConfig) *Handlers {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handlers{
		curator:    cfg.Curator,
		trackCount: cfg.TrackCount,
		exporter:   cfg.Exporter,
		store:      cfg.Store,
		log:        cfg.Logger,
	}
}

type classifyRequest struct {
	Text     string   `json:"text"`
	SongList []string `json:"song_list"`
	Policy   string   `json:"policy,omitempty"`
}

type classifyResponse struct {
	Tracks []string `json:"tracks"`
	Labels []string `json:"labels"`
	Policy string   `json:"policy"`
}

// Classify filters a candidate list by a free-text prompt (POST /api/classify).
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.curator.Curate(r.Context(), curator.Request{
		Text:     req.Text,
		SongList: req.SongList,
		Policy:   req.Policy,
	})
	switch {
	case errors.Is(err, curator.ErrNoText):
		writeError(w, http.StatusBadRequest, errNoText)
		return
	case errors.Is(err, curator.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error("curation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		Tracks: nonNil(res.Tracks),
		Labels: nonNil(res.Labels),
		Policy: string(res.Policy),
	})
}

type labelResponse struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Column string   `json:"column,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Labels lists the label catalog (GET /api/labels).
func (h *Handlers) Labels(w http.ResponseWriter, r *http.Request) {
	all := h.curator.Labels().All()

	out := make([]labelResponse, len(all))
	for i, l := range all {
		out[i] = labelResponse{Name: l.Name, Kind: string(l.Kind)}
		if l.Range != nil {
			out[i].Column = l.Range.Column
			out[i].Min = &l.Range.Min
			out[i].Max = &l.Range.Max
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"labels": out})
}

// Health reports readiness and catalog sizes (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tracks": h.trackCount,
		"labels": h.curator.Labels().Len(),
	})
}

type exportRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	Policy      string   `json:"policy,omitempty"`
	Tracks      []string `json:"tracks"`
}

type exportResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	TrackCount int    `json:"track_count"`
}

// ExportPlaylist saves tracks as a private Spotify playlist (POST /api/playlists).
func (h *Handlers) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errNoToken)
		return
	}

	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, errNoName)
		return
	}
	if len(req.Tracks) == 0 {
		writeError(w, http.StatusBadRequest, errNoTracks)
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultDescription(prompt)
	}

	playlist, err := h.exporter.Export(r.Context(), token, name, description, req.Tracks)
	if err != nil {
		h.log.Warn("playlist export failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("%s: %v", errSpotify, err))
		return
	}

	if h.store != nil {
		c := &db.Curation{
			UserID:      playlist.OwnerID,
			PlaylistID:  playlist.ID,
			PlaylistURL: playlist.URL,
			Prompt:      prompt,
			Policy:      req.Policy,
			TrackCount:  playlist.TrackCount,
		}
		if err := h.store.Create(r.Context(), c); err != nil {
			h.log.Error("recording curation failed", zap.String("playlist_id", playlist.ID), zap.Error(err))
		}
	}

	h.log.Info("playlist exported",
		zap.String("playlist_id", playlist.ID),
		zap.Int("tracks", playlist.TrackCount),
	)

	writeJSON(w, http.StatusCreated, exportResponse{
		ID:         playlist.ID,
		URL:        playlist.URL,
		TrackCount: playlist.TrackCount,
	})
}

type curationResponse struct {
	ID          string    `json:"id"`
	PlaylistID  string    `json:"playlist_id"`
	PlaylistURL string    `json:"playlist_url"`
	Prompt      string    `json:"prompt"`
	Policy      string    `json:"policy"`
	TrackCount  int       `json:"track_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListPlaylists lists the caller's recent exports (GET /api/playlists).
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errNoToken)
		return
	}

	out := []curationResponse{}
	if h.store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"curations": out})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = db.DefaultCurationLimit
	}

	userID, err := h.exporter.UserID(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("%s: %v", errSpotify, err))
		return
	}

	curations, err := h.store.ListForUser(r.Context(), userID, limit)
	if err != nil {
		h.log.Error("listing curations failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, c := range curations {
		out = append(out, curationResponse{
			ID:          c.ID.String(),
			PlaylistID:  c.PlaylistID,
			PlaylistURL: c.PlaylistURL,
			Prompt:      c.Prompt,
			Policy:      c.Policy,
			TrackCount:  c.TrackCount,
			CreatedAt:   c.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"curations": out})
}

// NotFound answers unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers routes matched with an unsupported method.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func defaultDescription(prompt string) string {
	if prompt == "" {
		return "Carefully chosen by Playlist Curator."
	}
	return fmt.Sprintf("Collection of songs that are %s, carefully chosen by Playlist Curator.", prompt)
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// decodeJSON reads a size-limited JSON body. An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid JSON body: %w", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
