package dcthash

import (
	"image"

	"github.com/sylphlab/mediadedup/internal/dederr"
)

// Luminance downsamples img to a resolution×resolution grayscale block
// using nearest-neighbor sampling (the engine's frame extractor is already
// responsible for any higher-quality resampling; this is the cheap path
// used when a provider hands over a raw decoded frame) and returns it as a
// row-major slice of [0,255] luminance values.
func Luminance(img image.Image, resolution int) ([]float64, error) {
	if resolution <= 0 {
		return nil, dederr.New(dederr.Validation, "dcthash.Luminance: resolution must be positive", nil)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, dederr.New(dederr.Validation, "dcthash.Luminance: empty image", nil)
	}
	out := make([]float64, resolution*resolution)
	for y := 0; y < resolution; y++ {
		sy := bounds.Min.Y + y*h/resolution
		for x := 0; x < resolution; x++ {
			sx := bounds.Min.X + x*w/resolution
			r, g, b, _ := img.At(sx, sy).RGBA()
			// Rec. 601 luma, operating on the 16-bit RGBA components.
			lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			out[y*resolution+x] = lum / 257.0 // scale 16-bit back to 8-bit range
		}
	}
	return out, nil
}
