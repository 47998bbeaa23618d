package util

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// MaxImagePixels bounds width*height of any image we are willing to decode.
const MaxImagePixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions exceed pixel limit")

// CheckImageBounds reads only the image header. Formats the decoder does not
// know pass unchecked since nothing here will decode them.
func CheckImageBounds(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil
	}
	return checkPixels(cfg)
}

func checkPixels(cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return ErrImageTooLarge
	}
	return nil
}

// DownscaleImage shrinks the image at path in place so that neither side
// exceeds maxDim. It reports whether the file was rewritten. Formats other
// than JPEG and PNG are left untouched.
func DownscaleImage(path string, mimeType string, maxDim int) (bool, error) {
	if maxDim <= 0 || !IsResizableMIME(mimeType) {
		return false, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return false, err
	}

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		_ = src.Close()
		return false, fmt.Errorf("decode image header: %w", err)
	}

	if err := checkPixels(cfg); err != nil {
		_ = src.Close()
		return false, err
	}

	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		_ = src.Close()
		return false, nil
	}

	if _, err := src.Seek(0, 0); err != nil {
		_ = src.Close()
		return false, err
	}

	img, _, err := image.Decode(src)
	_ = src.Close()
	if err != nil {
		return false, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	scale := float64(maxDim) / float64(max(bounds.Dx(), bounds.Dy()))
	targetWidth := max(1, int(math.Round(float64(bounds.Dx())*scale)))
	targetHeight := max(1, int(math.Round(float64(bounds.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return false, err
	}

	var encodeErr error
	if mimeType == "image/png" {
		encodeErr = png.Encode(out, dst)
	} else {
		encodeErr = jpeg.Encode(out, dst, &jpeg.Options{Quality: 90})
	}
	closeErr := out.Close()
	if encodeErr != nil {
		return false, fmt.Errorf("encode image: %w", encodeErr)
	}
	if closeErr != nil {
		return false, closeErr
	}

	return true, nil
}
