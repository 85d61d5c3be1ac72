package imaging

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
}

func TestLoad_ValidPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Arroz_Feijao.png")
	writeTestPNG(t, path, 640, 480)

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Width != 640 || img.Height != 480 {
		t.Errorf("dimensions = %dx%d, expected 640x480", img.Width, img.Height)
	}
	if img.Name != "Arroz_Feijao.png" {
		t.Errorf("name = %q", img.Name)
	}
	if img.Stem() != "arroz_feijao" {
		t.Errorf("stem = %q, expected arroz_feijao", img.Stem())
	}
	if img.PixelArea() != 640*480 {
		t.Errorf("pixel area = %v, expected %v", img.PixelArea(), 640*480)
	}
	if len(img.Data) == 0 {
		t.Error("raw bytes not retained")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrUndecodable) {
		t.Fatalf("expected ErrUndecodable, got %v", err)
	}
}

func TestFromBytes_Undecodable(t *testing.T) {
	_, err := FromBytes("garbage.png", []byte{0x00, 0x01, 0x02})
	if !errors.Is(err, ErrUndecodable) {
		t.Fatalf("expected ErrUndecodable, got %v", err)
	}
}

func TestSupportedExtension(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"plate.jpg", true},
		{"plate.JPG", true},
		{"plate.jpeg", true},
		{"plate.png", true},
		{"plate.bmp", true},
		{"plate.tiff", true},
		{"plate.avif", true},
		{"plate.webp", true},
		{"plate.gif", false},
		{"plate.txt", false},
		{"plate", false},
	}
	for _, tt := range tests {
		if got := SupportedExtension(tt.path); got != tt.expected {
			t.Errorf("SupportedExtension(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}
