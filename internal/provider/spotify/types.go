package spotify

// Spotify API response types.

// SearchResponse is the top-level response from the search endpoint.
type SearchResponse struct {
	Tracks TrackPage `json:"tracks"`
}

// TrackPage is one page of track results.
type TrackPage struct {
	Items  []Track `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Track is one track hit.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DurationMS   int               `json:"duration_ms"`
	Popularity   int               `json:"popularity"`
	PreviewURL   string            `json:"preview_url"`
	ExternalURLs map[string]string `json:"external_urls"`
	Artists      []ArtistRef       `json:"artists"`
	Album        Album             `json:"album"`
}

// ArtistRef identifies a credited artist.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is the album context of a track.
type Album struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	ReleaseDate          string   `json:"release_date"`
	ReleaseDatePrecision string   `json:"release_date_precision"`
	Genres               []string `json:"genres"`
	Images               []Image  `json:"images"`
}

// Image is one artwork rendition.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
