package ppm

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/vpt"
)

func TestWriteP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ppm")
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 17, 34, 51, 255,
	}
	if err := Write(path, 2, 2, pix); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "P3\n2 2\n255\n255 0 0\n0 255 0\n0 0 255\n17 34 51\n"
	if string(data) != want {
		t.Errorf("file contents = %q, want %q", data, want)
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	pix := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if err := Write(path, 2, 1, pix); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Errorf("decoded bounds = %v, want 2x1", img.Bounds())
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("pixel (0,0) = %d,%d,%d, want 10,20,30", r>>8, g>>8, b>>8)
	}
}

func TestWriteRejectsShortData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ppm")
	err := Write(path, 4, 4, make([]byte, 8))
	if !errors.Is(err, vpt.ErrWrite) {
		t.Fatalf("Write() error = %v, want %v", err, vpt.ErrWrite)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("short write left a file behind")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ppm")
	if err := Write(path, 1, 1, []byte{1, 2, 3, 255}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "out.ppm" {
			t.Errorf("unexpected file %q left in output directory", e.Name())
		}
	}
}

func TestWriteFailsOnMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.ppm")
	err := Write(path, 1, 1, []byte{1, 2, 3, 255})
	if !errors.Is(err, vpt.ErrWrite) {
		t.Fatalf("Write() error = %v, want %v", err, vpt.ErrWrite)
	}
	if err != nil && !strings.Contains(err.Error(), "out.ppm") {
		t.Errorf("error %q does not name the output file", err)
	}
}
