package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

// fakeAPI is a minimal Spotify Web API that records requests.
type fakeAPI struct {
	mu        sync.Mutex
	requests  []string
	addedURIs [][]string
	auth      string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.auth = r.Header.Get("Authorization")
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	ids := strings.Split(r.URL.Query().Get("ids"), ",")

	switch {
	case r.URL.Path == "/tracks":
		tracks := make([]any, len(ids))
		for i, id := range ids {
			if id == "unknown" {
				continue
			}
			tracks[i] = map[string]any{
				"id":   id,
				"name": "Song " + id,
				"artists": []map[string]string{
					{"id": "ar-" + id, "name": "Artist " + id},
					{"id": "ar-guest", "name": "Guest"},
				},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"tracks": tracks})

	case r.URL.Path == "/audio-features":
		features := make([]any, len(ids))
		for i, id := range ids {
			if id == "silent" {
				continue
			}
			features[i] = map[string]any{"id": id, "valence": 0.5, "energy": 0.25, "tempo": 120}
		}
		json.NewEncoder(w).Encode(map[string]any{"audio_features": features})

	case r.URL.Path == "/artists":
		artists := make([]any, len(ids))
		for i, id := range ids {
			genres := []string{"Indie Rock", "Folk"}
			if id == "ar-guest" {
				genres = nil
			}
			artists[i] = map[string]any{"id": id, "name": id, "genres": genres}
		}
		json.NewEncoder(w).Encode(map[string]any{"artists": artists})

	case r.URL.Path == "/me":
		json.NewEncoder(w).Encode(map[string]any{"id": "user1"})

	case r.URL.Path == "/users/user1/playlists" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "pl1",
			"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/pl1"},
		})

	case r.URL.Path == "/playlists/pl1/tracks" && r.Method == http.MethodPost:
		var body struct {
			URIs []string `json:"uris"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.addedURIs = append(f.addedURIs, body.URIs)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "snap"})

	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"status": 404, "message": "not found"}})
	}
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	return New(spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/"))), api
}

func trackIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%03d", i)
	}
	return ids
}

func TestFetchTracks(t *testing.T) {
	client, _ := newTestClient(t)

	tracks, err := client.FetchTracks(context.Background(), []string{"a", "unknown", "b"})
	require.NoError(t, err)

	require.Len(t, tracks, 2)
	assert.Equal(t, Track{
		ID:        "a",
		Name:      "Song a",
		Artist:    "Artist a, Guest",
		ArtistIDs: []string{"ar-a", "ar-guest"},
	}, tracks[0])
	assert.Equal(t, "b", tracks[1].ID)
}

func TestFetchTracksBatching(t *testing.T) {
	tests := []struct {
		name          string
		totalTracks   int
		expectedCalls int
	}{
		{"empty", 0, 0},
		{"single track", 1, 1},
		{"exactly 50", 50, 1},
		{"51 tracks", 51, 2},
		{"120 tracks", 120, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, api := newTestClient(t)

			tracks, err := client.FetchTracks(context.Background(), trackIDs(tt.totalTracks))
			require.NoError(t, err)

			assert.Len(t, tracks, tt.totalTracks)
			assert.Equal(t, tt.expectedCalls, api.count("GET /tracks"))
		})
	}
}

func TestFetchAudioFeatures(t *testing.T) {
	client, _ := newTestClient(t)

	features, err := client.FetchAudioFeatures(context.Background(), []string{"a", "silent"})
	require.NoError(t, err)

	require.Contains(t, features, "a")
	assert.NotContains(t, features, "silent")
	assert.Equal(t, 0.5, features["a"]["valence"])
	assert.Equal(t, 0.25, features["a"]["energy"])
	assert.Equal(t, 120.0, features["a"]["tempo"])
	assert.Contains(t, features["a"], "danceability", "zero values are kept")
	assert.Equal(t, 0.0, features["a"]["danceability"])
}

func TestAudioFeaturesBatchCount(t *testing.T) {
	tests := []struct {
		name          string
		totalTracks   int
		expectedCalls int
	}{
		{"empty", 0, 0},
		{"exactly 100", 100, 1},
		{"101 tracks", 101, 2},
		{"250 tracks", 250, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, api := newTestClient(t)

			_, err := client.FetchAudioFeatures(context.Background(), trackIDs(tt.totalTracks))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCalls, api.count("GET /audio-features"))
		})
	}
}

func TestFetchArtistGenres(t *testing.T) {
	client, _ := newTestClient(t)

	genres, err := client.FetchArtistGenres(context.Background(), []string{"ar-a", "ar-guest"})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"ar-a": {"indie rock", "folk"}}, genres)
}

func TestCreatePlaylistAndAddTracks(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	playlist, err := client.CreatePlaylist(ctx, "Sunny", "desc", false)
	require.NoError(t, err)
	assert.Equal(t, "pl1", playlist.ID)
	assert.Equal(t, "https://open.spotify.com/playlist/pl1", playlist.URL)
	assert.Equal(t, "user1", playlist.OwnerID)

	require.NoError(t, client.AddTracksToPlaylist(ctx, "pl1", trackIDs(250)))
	require.Len(t, api.addedURIs, 3)
	assert.Len(t, api.addedURIs[0], 100)
	assert.Len(t, api.addedURIs[1], 100)
	assert.Len(t, api.addedURIs[2], 50)
	assert.Equal(t, "spotify:track:t000", api.addedURIs[0][0])
}

func TestAddTracksToPlaylistEmpty(t *testing.T) {
	client, api := newTestClient(t)

	require.NoError(t, client.AddTracksToPlaylist(context.Background(), "pl1", nil))
	assert.Equal(t, 0, api.count("POST"))
}

func TestExporter(t *testing.T) {
	api := &fakeAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	exporter := NewExporter(spotify.WithBaseURL(server.URL + "/"))
	ctx := context.Background()

	userID, err := exporter.UserID(ctx, "user-token")
	require.NoError(t, err)
	assert.Equal(t, "user1", userID)
	assert.Equal(t, "Bearer user-token", api.auth)

	playlist, err := exporter.Export(ctx, "user-token", "Sunny", "desc", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "pl1", playlist.ID)
	assert.Equal(t, 2, playlist.TrackCount)
	assert.Equal(t, [][]string{{"spotify:track:a", "spotify:track:b"}}, api.addedURIs)
}

func TestAPIErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
	}))
	defer server.Close()

	client := New(spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/")))

	_, err := client.UserID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting current user")
}
