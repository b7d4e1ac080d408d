package genius

// Genius API response types.

// SearchResponse is the top-level response from the search endpoint.
type SearchResponse struct {
	Meta     Meta     `json:"meta"`
	Response Response `json:"response"`
}

// Meta carries the in-band status code.
type Meta struct {
	Status int `json:"status"`
}

// Response wraps the hit list.
type Response struct {
	Hits []Hit `json:"hits"`
}

// Hit is one search hit; only "song" hits matter here.
type Hit struct {
	Type   string `json:"type"`
	Index  string `json:"index"`
	Result Song   `json:"result"`
}

// Song is the song entity inside a hit.
type Song struct {
	ID                    int       `json:"id"`
	Title                 string    `json:"title"`
	FullTitle             string    `json:"full_title"`
	URL                   string    `json:"url"`
	SongArtImageURL       string    `json:"song_art_image_url"`
	ReleaseDateForDisplay string    `json:"release_date_for_display"`
	PrimaryArtist         ArtistRef `json:"primary_artist"`
}

// ArtistRef identifies the primary artist of a song.
type ArtistRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
