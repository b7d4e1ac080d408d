package lastfm

// Last.fm API response types.

// InfoResponse is the top-level response from track.getInfo. Errors arrive
// in-band: a failed call is still HTTP 200 with Error and Message set.
type InfoResponse struct {
	Track   TrackInfo `json:"track"`
	Error   int       `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// TrackInfo is the track entity returned by track.getInfo.
type TrackInfo struct {
	Name     string    `json:"name"`
	MBID     string    `json:"mbid"`
	URL      string    `json:"url"`
	Duration string    `json:"duration"` // milliseconds as a string
	Artist   ArtistRef `json:"artist"`
	Album    AlbumInfo `json:"album"`
	TopTags  TagList   `json:"toptags"`
}

// ArtistRef identifies the track's artist.
type ArtistRef struct {
	Name string `json:"name"`
	MBID string `json:"mbid"`
	URL  string `json:"url"`
}

// AlbumInfo is the album context of a track.
type AlbumInfo struct {
	Artist string  `json:"artist"`
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Image  []Image `json:"image"`
}

// Image is one artwork rendition; the array is ordered ascending by size.
type Image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// TagList wraps the tag array.
type TagList struct {
	Tag []Tag `json:"tag"`
}

// Tag is one listener tag.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
