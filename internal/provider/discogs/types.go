package discogs

import (
	"strconv"
	"strings"
)

// Discogs API response types.

// SearchResponse is the top-level response from the database search endpoint.
type SearchResponse struct {
	Pagination Pagination `json:"pagination"`
	Results    []Release  `json:"results"`
}

// Pagination describes the result window.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// Release is one search hit from the release index.
type Release struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Year       FlexYear `json:"year"`
	Genre      []string `json:"genre"`
	Style      []string `json:"style"`
	Label      []string `json:"label"`
	Country    string   `json:"country"`
	Format     []string `json:"format"`
	CoverImage string   `json:"cover_image"`
	Thumb      string   `json:"thumb"`
}

// FlexYear tolerates the search endpoint serializing year as a string while
// other endpoints use a number. Unparseable years decode to zero.
type FlexYear int

// UnmarshalJSON implements json.Unmarshaler.
func (y *FlexYear) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*y = 0
		return nil
	}
	*y = FlexYear(n)
	return nil
}
