package youtube

// Video is the subset of a yt-dlp --dump-json document the adapter reads.
// Duration is a float because yt-dlp emits fractional seconds for some
// extractors; Album and Track are only present when YouTube recognizes the
// video as a music release.
type Video struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	UploadDate string  `json:"upload_date"`
	Thumbnail  string  `json:"thumbnail"`
	Track      string  `json:"track"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	WebpageURL string  `json:"webpage_url"`
}
