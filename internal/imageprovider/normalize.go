package imageprovider

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
)

// jpegQuality is the encode quality for persisted images.
const jpegQuality = 85

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// scaleToWidth returns img scaled down so its width is at most maxWidth,
// preserving aspect ratio. Images already narrower are returned unchanged;
// normalization never upscales.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// writeImagePair persists the normalized full-size image and thumbnail under
// the given paths. Both writes go through a temp file and rename so a crash
// mid-write never leaves a partial image where readers can see it.
func writeImagePair(img image.Image, fullPath, thumbPath string, maxWidth, thumbWidth int) error {
	if err := writeJPEG(scaleToWidth(img, maxWidth), fullPath); err != nil {
		return err
	}
	if err := writeJPEG(scaleToWidth(img, thumbWidth), thumbPath); err != nil {
		// Remove the full image so the pair stays consistent on disk.
		_ = os.Remove(fullPath)
		return err
	}
	return nil
}

func writeJPEG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating image directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating image file %s: %w", tmp, err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encoding image %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing image file %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
