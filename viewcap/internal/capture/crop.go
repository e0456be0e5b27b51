package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// contentBounds returns the smallest rectangle holding every pixel that
// differs from the background colour, taken from the top-left corner, by
// more than tol on any 8-bit channel. ok is false when the image is blank.
func contentBounds(img image.Image, tol int) (r image.Rectangle, ok bool) {
	b := img.Bounds()
	if b.Empty() {
		return image.Rectangle{}, false
	}
	br, bg, bb, ba := rgba8(img, b.Min.X, b.Min.Y)

	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := rgba8(img, x, y)
			if absDiff(r, br) <= tol && absDiff(g, bg) <= tol && absDiff(bl, bb) <= tol && absDiff(a, ba) <= tol {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func rgba8(img image.Image, x, y int) (r, g, b, a int) {
	cr, cg, cb, ca := img.At(x, y).RGBA()
	return int(cr >> 8), int(cg >> 8), int(cb >> 8), int(ca >> 8)
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// cropFile rewrites the PNG at path cropped to its content bounds. A blank
// or already tight image is left untouched.
func cropFile(path string, tol int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	r, ok := contentBounds(img, tol)
	if !ok || r == img.Bounds() {
		return nil
	}
	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return errors.New("image type does not support cropping")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".crop-*.png")
	if err != nil {
		return err
	}
	if err := png.Encode(tmp, sub.SubImage(r)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
