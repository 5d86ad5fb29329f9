package inspection

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
)

// CaptureTime reads the EXIF capture time from an image stream.
func CaptureTime(r io.Reader) (time.Time, bool) {
	x, err := exif.Decode(r)
	if err != nil {
		return time.Time{}, false
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var photoExtensions = []string{"", ".jpg", ".jpeg", ".JPG", ".JPEG"}

// FillCaptureTimes sets CaptureTimestamp on records that lack one by reading
// EXIF data from <dir>/<id>[.jpg|.jpeg]. It returns the number of records
// updated. Missing or unreadable photos are skipped.
func FillCaptureTimes(res *BatchResult, dir string, log zerolog.Logger) int {
	filled := 0
	for i := range res.Images {
		rec := &res.Images[i]
		if rec.CaptureTimestamp != nil {
			continue
		}
		t, ok := captureTimeFor(dir, rec.ID)
		if !ok {
			log.Debug().Str("image_id", rec.ID).Msg("no EXIF capture time")
			continue
		}
		rec.CaptureTimestamp = &t
		filled++
	}
	return filled
}

func captureTimeFor(dir, id string) (time.Time, bool) {
	for _, ext := range photoExtensions {
		f, err := os.Open(filepath.Join(dir, filepath.Base(id)+ext))
		if err != nil {
			continue
		}
		t, ok := CaptureTime(f)
		f.Close()
		if ok {
			return t, true
		}
	}
	return time.Time{}, false
}
