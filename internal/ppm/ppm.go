// Package ppm writes the rendered image to disk as an ASCII portable
// pixmap (P3) or, for ".png" paths, as a PNG.
package ppm

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/vpt"
)

// Write emits a width x height image from RGBA pixel data (4 bytes per
// pixel, rows top to bottom, pixels left to right). The file is written to
// a temporary path in the same directory and renamed into place so a
// failed run never leaves a partial image behind.
func Write(path string, width, height int, pix []byte) error {
	if len(pix) < width*height*4 {
		return vpt.Wrapf(vpt.ErrWrite, "%s: %d pixels of data for %dx%d image", path, len(pix)/4, width, height)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return vpt.Wrapf(vpt.ErrWrite, "%s: %v", path, err)
	}
	tmpPath := tmp.Name()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = writePNG(tmp, width, height, pix)
	} else {
		err = writeP3(tmp, width, height, pix)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return vpt.Wrapf(vpt.ErrWrite, "%s: %v", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return vpt.Wrapf(vpt.ErrWrite, "%s: %v", path, err)
	}
	return nil
}

func writeP3(f *os.File, width, height int, pix []byte) error {
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P3\n%d %d\n255\n", width, height)
	for i := 0; i < width*height; i++ {
		fmt.Fprintf(w, "%d %d %d\n", pix[i*4], pix[i*4+1], pix[i*4+2])
	}
	return w.Flush()
}

func writePNG(f *os.File, width, height int, pix []byte) error {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4+0] = pix[i*4+0]
		img.Pix[i*4+1] = pix[i*4+1]
		img.Pix[i*4+2] = pix[i*4+2]
		img.Pix[i*4+3] = 255
	}
	return png.Encode(f, img)
}
