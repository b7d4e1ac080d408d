// Package tag reads and writes audio file metadata through taglib. Writes
// are merge-style: fields the reconciliation did not resolve keep whatever
// the file already carried.
package tag

import (
	"fmt"
	"strconv"
	"time"

	"go.senan.xyz/taglib"

	"github.com/sydlexius/calliope/internal/reconcile"
)

// Track is the metadata read from an audio file.
type Track struct {
	Title    string
	Artist   string
	Album    string
	Year     int
	Genre    string
	Duration int // seconds
}

// Read returns the tags and audio length of the file at path.
func Read(path string) (*Track, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	t := &Track{
		Title:  firstTag(tags, taglib.Title),
		Artist: firstTag(tags, taglib.Artist),
		Album:  firstTag(tags, taglib.Album),
		Genre:  firstTag(tags, taglib.Genre),
	}
	// Date tags range from bare years to full ISO dates; the year prefix is
	// all we keep.
	if date := firstTag(tags, taglib.Date); len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			t.Year = y
		}
	}
	if d, err := Duration(path); err == nil {
		t.Duration = d
	}
	return t, nil
}

// Duration returns the audio length in whole seconds, read from the stream
// properties rather than the tags.
func Duration(path string) (int, error) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return 0, fmt.Errorf("reading audio properties: %w", err)
	}
	return int(props.Length / time.Second), nil
}

// Query builds a provider query from the track's existing tags.
func (t *Track) Query() reconcile.Query {
	return reconcile.Query{
		Title:  t.Title,
		Artist: t.Artist,
		Album:  t.Album,
		Year:   t.Year,
	}
}

// Write maps the merged selections onto the file's tags. Only fields the
// merge resolved are written. Duration is a stream property and cannot be
// written; cover art goes through WriteCoverArt.
func Write(path string, m *reconcile.MergedMetadata) error {
	tags := make(map[string][]string)
	if v := m.Text(reconcile.FieldTitle); v != "" {
		tags[taglib.Title] = []string{v}
	}
	if v := m.Text(reconcile.FieldArtist); v != "" {
		tags[taglib.Artist] = []string{v}
	}
	if v := m.Text(reconcile.FieldAlbum); v != "" {
		tags[taglib.Album] = []string{v}
	}
	if v := m.Text(reconcile.FieldGenre); v != "" {
		tags[taglib.Genre] = []string{v}
	}
	if y := m.Num(reconcile.FieldYear); y > 0 {
		tags[taglib.Date] = []string{strconv.Itoa(y)}
	}
	if len(tags) == 0 {
		return nil
	}
	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("writing tags to %s: %w", path, err)
	}
	return nil
}

// WriteCoverArt embeds image data into the file. Empty data is a no-op.
func WriteCoverArt(path string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := taglib.WriteImage(path, data); err != nil {
		return fmt.Errorf("embedding cover art in %s: %w", path, err)
	}
	return nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
