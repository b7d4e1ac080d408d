package tag

import (
	"os/exec"
	"path/filepath"
	"testing"

	"go.senan.xyz/taglib"

	"github.com/sydlexius/calliope/internal/reconcile"
)

// createTestAudioFile generates a short silent MP3 using ffmpeg. Skips the
// test if ffmpeg is not available.
func createTestAudioFile(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping tag test")
	}

	path := filepath.Join(dir, "test.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "1", "-q:a", "9", path)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

// mergeOne builds a MergedMetadata from a single record through the real
// merge path.
func mergeOne(t *testing.T, rec reconcile.SourceRecord) *reconcile.MergedMetadata {
	t.Helper()
	merged, err := reconcile.NewMerger(reconcile.DefaultWeights()).Merge([]reconcile.SourceRecord{rec})
	if err != nil {
		t.Fatalf("merging test record: %v", err)
	}
	return merged
}

func TestWrite(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	merged := mergeOne(t, reconcile.SourceRecord{
		Provider:   reconcile.MusicBrainz,
		Title:      "Bohemian Rhapsody",
		Artist:     "Queen",
		Album:      "A Night at the Opera",
		Year:       1975,
		Genre:      "Rock",
		Confidence: 0.95,
	})

	if err := Write(path, merged); err != nil {
		t.Fatalf("Write: %v", err)
	}

	tags, err := taglib.ReadTags(path)
	if err != nil {
		t.Fatalf("reading tags back: %v", err)
	}
	checks := map[string]string{
		taglib.Title:  "Bohemian Rhapsody",
		taglib.Artist: "Queen",
		taglib.Album:  "A Night at the Opera",
		taglib.Date:   "1975",
		taglib.Genre:  "Rock",
	}
	for key, want := range checks {
		got := firstTag(tags, key)
		if got != want {
			t.Errorf("tag %s = %q, want %q", key, got, want)
		}
	}
}

func TestWriteKeepsUnresolvedFields(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	// Pre-existing genre that the merge does not resolve.
	if err := taglib.WriteTags(path, map[string][]string{
		taglib.Genre: {"Progressive Rock"},
	}, 0); err != nil {
		t.Fatalf("seeding tags: %v", err)
	}

	merged := mergeOne(t, reconcile.SourceRecord{
		Provider:   reconcile.LastFm,
		Title:      "Echoes",
		Artist:     "Pink Floyd",
		Confidence: 0.75,
	})

	if err := Write(path, merged); err != nil {
		t.Fatalf("Write: %v", err)
	}

	tags, err := taglib.ReadTags(path)
	if err != nil {
		t.Fatalf("reading tags back: %v", err)
	}
	if got := firstTag(tags, taglib.Genre); got != "Progressive Rock" {
		t.Errorf("genre = %q, want untouched %q", got, "Progressive Rock")
	}
	if got := firstTag(tags, taglib.Title); got != "Echoes" {
		t.Errorf("title = %q, want %q", got, "Echoes")
	}
}

func TestRead(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	if err := taglib.WriteTags(path, map[string][]string{
		taglib.Title:  {"Karma Police"},
		taglib.Artist: {"Radiohead"},
		taglib.Album:  {"OK Computer"},
		taglib.Date:   {"1997-05-21"},
		taglib.Genre:  {"Alternative"},
	}, 0); err != nil {
		t.Fatalf("seeding tags: %v", err)
	}

	track, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if track.Title != "Karma Police" {
		t.Errorf("title = %q, want %q", track.Title, "Karma Police")
	}
	if track.Artist != "Radiohead" {
		t.Errorf("artist = %q, want %q", track.Artist, "Radiohead")
	}
	if track.Album != "OK Computer" {
		t.Errorf("album = %q, want %q", track.Album, "OK Computer")
	}
	if track.Year != 1997 {
		t.Errorf("year = %d, want 1997 (from full date tag)", track.Year)
	}
	if track.Genre != "Alternative" {
		t.Errorf("genre = %q, want %q", track.Genre, "Alternative")
	}
	// The generated file is one second of silence.
	if track.Duration < 1 || track.Duration > 2 {
		t.Errorf("duration = %d, want about 1 second", track.Duration)
	}
}

func TestTrackQuery(t *testing.T) {
	track := &Track{Title: "Echoes", Artist: "Pink Floyd", Album: "Meddle", Year: 1971}
	q := track.Query()
	if q.Title != "Echoes" || q.Artist != "Pink Floyd" || q.Album != "Meddle" || q.Year != 1971 {
		t.Errorf("unexpected query: %+v", q)
	}
}

func TestWriteCoverArt(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	// Smallest valid JFIF.
	fakeImage := []byte{
		0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01,
		0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9,
	}

	if err := WriteCoverArt(path, fakeImage); err != nil {
		t.Fatalf("WriteCoverArt: %v", err)
	}

	data, err := taglib.ReadImage(path)
	if err != nil {
		t.Fatalf("reading image back: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected embedded image data, got empty")
	}
}

func TestWriteCoverArtEmpty(t *testing.T) {
	if err := WriteCoverArt("/nonexistent", nil); err != nil {
		t.Errorf("expected nil error for empty image, got %v", err)
	}
}

func TestReadNonexistentFile(t *testing.T) {
	if _, err := Read("/nonexistent/file.mp3"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestWriteEmptyMergeIsNoOp(t *testing.T) {
	// No resolvable fields means nothing is written, even to a bad path.
	merged := &reconcile.MergedMetadata{}
	if err := Write("/nonexistent/file.mp3", merged); err != nil {
		t.Errorf("expected no-op for empty merge, got %v", err)
	}
}
