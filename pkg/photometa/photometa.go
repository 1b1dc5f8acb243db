// Package photometa extracts dimensions and EXIF details from uploaded photos.
package photometa

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when the payload cannot be decoded as an image.
var ErrNotImage = errors.New("payload is not a supported image")

// Meta holds what the service records about a photo.
type Meta struct {
	Format      string
	Width       int
	Height      int
	Orientation int
	TakenAt     *time.Time
	Latitude    *float64
	Longitude   *float64
}

// Inspect decodes the image header and any EXIF block. Missing EXIF is not
// an error; Orientation then defaults to 1.
func Inspect(data []byte) (*Meta, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	meta := &Meta{Format: format, Width: cfg.Width, Height: cfg.Height, Orientation: 1}
	if format != "jpeg" {
		return meta, nil
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta, nil
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			meta.Orientation = v
		}
	}
	// orientations 5-8 rotate by 90 degrees
	if meta.Orientation >= 5 {
		meta.Width, meta.Height = meta.Height, meta.Width
	}
	if taken, err := x.DateTime(); err == nil {
		t := taken.UTC()
		meta.TakenAt = &t
	}
	if lat, lon, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lon
	}
	return meta, nil
}
