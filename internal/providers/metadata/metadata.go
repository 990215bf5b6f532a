// Package metadata implements the ExtractMetadata provider contract (§6)
// by reading EXIF tags, grounded on the EXIF-extraction approach used by
// the wider retrieval pack's photo-organizing tools.
package metadata

import (
	"context"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/models"
)

// Extractor reads EXIF metadata from image files. Files with no EXIF
// segment (most videos, many re-encoded images) yield a zero-value
// Metadata rather than an error.
type Extractor struct{}

// NewExtractor constructs an Extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// ExtractMetadata opens path and decodes its EXIF tags, if any.
func (e *Extractor) ExtractMetadata(ctx context.Context, path string) (models.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Metadata{}, dederr.New(dederr.FileSystem, "metadata.ExtractMetadata", err).WithPath(path)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF segment is the common case, not a failure: videos and
		// many re-encoded images carry no EXIF at all.
		return models.Metadata{}, nil
	}

	md := models.Metadata{}

	if w, h, ok := dimensions(x); ok {
		md.Width, md.Height = w, h
	}
	if lat, lon, err := x.LatLong(); err == nil {
		md.GPSLatitude = &lat
		md.GPSLongitude = &lon
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			md.CameraModel = strings.TrimSpace(s)
		}
	}
	if dt, err := x.DateTime(); err == nil {
		t := dt
		md.ImageDate = &t
	}

	return md, nil
}

func dimensions(x *exif.Exif) (int, int, bool) {
	wTag, errW := x.Get(exif.PixelXDimension)
	hTag, errH := x.Get(exif.PixelYDimension)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	w, errW := wTag.Int(0)
	h, errH := hTag.Int(0)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}
