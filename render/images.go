package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/jung-kurt/gofpdf"
)

// ImageStatus tells whether an optional image made it into the document.
type ImageStatus string

const (
	ImageLoaded  ImageStatus = "loaded"
	ImageOmitted ImageStatus = "omitted"
)

// Names of the optional images.
const (
	LogoImage      = "logo"
	SignatureImage = "signature"
)

// ImageResult records the outcome of one optional image lookup. An omitted
// image is not an error: the document keeps an empty space in its place.
type ImageResult struct {
	Name   string
	Path   string
	Status ImageStatus
	Reason string
}

type loadedImage struct {
	data  []byte
	kind  string  // gofpdf image type
	ratio float64 // height / width
}

var imageKinds = map[string]string{
	"png":  "PNG",
	"jpeg": "JPG",
	"gif":  "GIF",
}

// loadImage reads and validates an optional image. The returned image is
// nil whenever the result status is ImageOmitted.
func loadImage(name, path string) (ImageResult, *loadedImage) {
	res := ImageResult{Name: name, Path: path, Status: ImageOmitted}

	if path == "" {
		res.Reason = "no path configured"
		return res, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Reason = err.Error()
		return res, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		res.Reason = fmt.Sprintf("cannot decode image: %v", err)
		return res, nil
	}
	kind, ok := imageKinds[format]
	if !ok || cfg.Width == 0 || cfg.Height == 0 {
		res.Reason = fmt.Sprintf("unsupported image format %q", format)
		return res, nil
	}

	// gofpdf rejects some valid images (interlaced or 16-bit PNG). Register
	// on a scratch document first so a failure cannot poison the real one.
	scratch := gofpdf.New("P", "mm", "A4", "")
	scratch.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
	if !scratch.Ok() {
		res.Reason = scratch.Error().Error()
		return res, nil
	}

	res.Status = ImageLoaded
	return res, &loadedImage{
		data:  data,
		kind:  kind,
		ratio: float64(cfg.Height) / float64(cfg.Width),
	}
}
