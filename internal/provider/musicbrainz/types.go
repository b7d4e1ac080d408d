package musicbrainz

// MusicBrainz API response types.

// SearchResponse is the top-level response from the recording search endpoint.
type SearchResponse struct {
	Created    string        `json:"created"`
	Count      int           `json:"count"`
	Offset     int           `json:"offset"`
	Recordings []MBRecording `json:"recordings"`
}

// MBRecording represents a MusicBrainz recording entity.
type MBRecording struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Score        int              `json:"score"`
	Length       int              `json:"length"` // milliseconds
	ArtistCredit []MBArtistCredit `json:"artist-credit"`
	Releases     []MBRelease      `json:"releases"`
}

// MBArtistCredit is one entry of a recording's artist credit.
type MBArtistCredit struct {
	Name   string       `json:"name"`
	Artist *MBArtistRef `json:"artist,omitempty"`
}

// MBArtistRef identifies the credited artist.
type MBArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MBRelease is a release a recording appears on.
type MBRelease struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Date   string `json:"date"`
}
