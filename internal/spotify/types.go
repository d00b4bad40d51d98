package spotify

// Track contains the track metadata needed to build a catalog row.
type Track struct {
	ID        string
	Name      string
	Artist    string   // Comma-separated artist names
	ArtistIDs []string // In credit order
}

// Playlist describes a playlist created on Spotify.
type Playlist struct {
	ID         string
	URL        string
	OwnerID    string
	TrackCount int
}
