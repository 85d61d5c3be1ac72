package detect

import (
	"context"

	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
)

// RawDetection is one unnormalized result from a recognition backend.
// Detector-style backends fill BBox; classifier-style backends leave it nil
// and may report a pre-computed RawArea instead.
type RawDetection struct {
	Label      string       `json:"label"`
	Confidence float64      `json:"confidence"`
	BBox       *models.BBox `json:"bbox,omitempty"`
	RawArea    *float64     `json:"raw_area,omitempty"`
}

// Detector is the single capability every recognition backend provides:
// labeled regions with confidence scores for one image. Returning an empty
// slice is a valid outcome, not an error.
type Detector interface {
	// Detect runs recognition on the image.
	Detect(ctx context.Context, img *imaging.Image) ([]RawDetection, error)

	// Name identifies the backend in logs and stats.
	Name() string
}

// cocoAliases maps recognizer class names onto nutrition-table labels or
// contextual object names. Classes without an alias pass through unchanged.
var cocoAliases = map[string]string{
	"bowl":      "bowl",
	"cup":       "cup",
	"fork":      "utensil",
	"knife":     "utensil",
	"spoon":     "utensil",
	"carrot":    "carrot",
	"broccoli":  "broccoli",
	"cake":      "cake",
	"donut":     "donut",
	"pizza":     "pizza",
	"sandwich":  "sandwich",
	"hot dog":   "hot dog",
	"hamburger": "hamburger",
}

// contextualObjects are zero-calorie classes retained in output because they
// signal plate context.
var contextualObjects = map[string]bool{
	"bowl": true,
	"cup":  true,
}
