package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotFound indicates the image file does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrUndecodable indicates the file exists but no registered decoder
	// could read it.
	ErrUndecodable = errors.New("unsupported image format or corrupted file")
)

// supportedExtensions are the file extensions the batch processor picks up,
// compared lower-cased.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".avif": true,
	".webp": true,
}

// SupportedExtension reports whether path has a recognized image extension.
func SupportedExtension(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Image holds a loaded image's pixel dimensions and raw bytes. Pixels are
// never decoded beyond what dimension probing requires; the raw bytes are
// what gets shipped to a recognition backend.
type Image struct {
	Path   string
	Name   string
	Width  int
	Height int
	Data   []byte
}

// Load reads an image file and probes its dimensions.
func Load(path string) (*Image, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}

	img, err := FromBytes(filepath.Base(abs), data)
	if err != nil {
		return nil, err
	}
	img.Path = abs
	return img, nil
}

// FromBytes probes the dimensions of an in-memory image. It first tries the
// cheap header-only decode and falls back to a full decode for files whose
// headers alone do not parse.
func FromBytes(name string, data []byte) (*Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return &Image{Name: name, Width: cfg.Width, Height: cfg.Height, Data: data}, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUndecodable, name)
	}

	bounds := decoded.Bounds()
	return &Image{Name: name, Width: bounds.Dx(), Height: bounds.Dy(), Data: data}, nil
}

// Stem returns the file name without its extension, lower-cased. It is the
// input to filename-based detection.
func (i *Image) Stem() string {
	name := i.Name
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	return strings.ToLower(name)
}

// PixelArea returns the total image area in pixels.
func (i *Image) PixelArea() float64 {
	return float64(i.Width) * float64(i.Height)
}
