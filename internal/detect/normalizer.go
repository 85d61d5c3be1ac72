package detect

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
	"github.com/aronrissato/CarboPratos/internal/nutrition"
)

const (
	// ConfidenceThreshold discards classifier-style results below it as
	// noise. Detector-style results with real boxes are kept as-is.
	ConfidenceThreshold = 0.3

	// FilenameConfidence is the fixed score for detections derived from
	// the filename rather than from pixels.
	FilenameConfidence = 0.7

	// DefaultConfidence is the fixed score for the last-resort default
	// guess.
	DefaultConfidence = 0.5

	// SyntheticAreaBudget is the total fictitious pixel area split evenly
	// across filename-matched foods.
	SyntheticAreaBudget = 50000.0

	// minKeywordLength guards the filename label scan against false
	// positives from very short labels.
	minKeywordLength = 3
)

// placeholderBBox marks filename-sourced detections, which have no spatial
// grounding.
var placeholderBBox = models.BBox{X1: 0, Y1: 0, X2: 100, Y2: 100}

// filenamePatterns maps known composite filename fragments to the foods they
// name. Checked in order; the first hit wins and no further scanning happens.
var filenamePatterns = []struct {
	pattern string
	foods   []string
}{
	{"feijaoearroz", []string{"feijao", "arroz"}},
	{"feijao_arroz", []string{"feijao", "arroz"}},
	{"feijão_arroz", []string{"feijão", "arroz"}},
	{"arroz_feijao", []string{"arroz", "feijao"}},
	{"arroz_feijão", []string{"arroz", "feijão"}},
	{"prato_feijao", []string{"feijao"}},
	{"prato_arroz", []string{"arroz"}},
	{"salada_verde", []string{"alface", "tomate"}},
	{"salada_mista", []string{"alface", "tomate", "cenoura"}},
	{"frango_arroz", []string{"frango", "arroz"}},
	{"macarrao_queijo", []string{"macarrao", "queijo"}},
	{"pasta_queijo", []string{"massa", "queijo"}},
}

// defaultStaples is the last-resort guess when every detection strategy
// comes up empty in degraded mode.
var defaultStaples = []string{"arroz", "feijão", "frango"}

// Normalizer unifies heterogeneous backend output into canonical Detections
// and owns the fallback chain: backend, then filename keywords, then (in
// degraded mode) a tagged default guess. It never fails on absence of
// detections.
type Normalizer struct {
	detector     Detector
	logger       *zap.Logger
	defaultGuess bool
}

// NewNormalizer builds a Normalizer over the given backend. defaultGuess
// enables the last-resort staple guess and should be set only for the
// rule-based degraded mode.
func NewNormalizer(detector Detector, defaultGuess bool, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		detector:     detector,
		logger:       logger,
		defaultGuess: defaultGuess,
	}
}

// Normalize produces the canonical detections for one loaded image. A
// backend invocation failure is demoted to zero detections and enters the
// fallback chain.
func (n *Normalizer) Normalize(ctx context.Context, img *imaging.Image) []models.Detection {
	raw, err := n.detector.Detect(ctx, img)
	if err != nil {
		n.logger.Warn("Recognition backend failed, falling back",
			zap.String("backend", n.detector.Name()),
			zap.String("image", img.Name),
			zap.Error(err))
		raw = nil
	}

	detections := n.fromBackend(raw, img)
	if len(detections) > 0 {
		return detections
	}

	detections = n.fromFilename(img)
	if len(detections) > 0 {
		n.logger.Info("Detections derived from filename",
			zap.String("image", img.Name),
			zap.Int("count", len(detections)))
		return detections
	}

	if n.defaultGuess {
		n.logger.Warn("No detection strategy matched, using default guess",
			zap.String("image", img.Name))
		return n.defaultDetections(img)
	}

	return nil
}

// fromBackend converts raw backend output, dropping unknown non-contextual
// labels and low-confidence classifier results.
func (n *Normalizer) fromBackend(raw []RawDetection, img *imaging.Image) []models.Detection {
	var detections []models.Detection
	for _, r := range raw {
		label := strings.ToLower(r.Label)
		if alias, ok := cocoAliases[label]; ok {
			label = alias
		}

		var bbox models.BBox
		var area float64
		switch {
		case r.BBox != nil:
			bbox = *r.BBox
			area = bbox.Area()
			if r.RawArea != nil {
				area = *r.RawArea
			}
		default:
			// Classifier-style result: no spatial information, so the
			// label is assumed to cover the frame. Below the threshold
			// it is noise, not an error.
			if r.Confidence <= ConfidenceThreshold {
				continue
			}
			bbox = models.BBox{X2: float64(img.Width), Y2: float64(img.Height)}
			area = img.PixelArea()
			if r.RawArea != nil {
				area = *r.RawArea
			}
		}

		calories := nutrition.Lookup(label)
		if calories == 0 && !contextualObjects[label] {
			continue
		}

		detections = append(detections, models.Detection{
			ClassName:       label,
			Source:          models.SourceModel,
			Confidence:      r.Confidence,
			BBox:            bbox,
			Area:            area,
			CaloriesPer100g: calories,
		})
	}
	return detections
}

// fromFilename matches the filename stem against the composite pattern table
// first, then against every nutrition-table label, and synthesizes one
// detection per matched food with a shared fictitious area budget.
func (n *Normalizer) fromFilename(img *imaging.Image) []models.Detection {
	stem := img.Stem()

	var foods []string
	for _, fp := range filenamePatterns {
		if strings.Contains(stem, fp.pattern) {
			foods = append(foods, fp.foods...)
			break
		}
	}

	if len(foods) == 0 {
		for _, label := range nutrition.Labels() {
			if len(label) >= minKeywordLength && strings.Contains(stem, label) {
				foods = append(foods, label)
			}
		}
	}

	matches := len(foods)
	if matches == 0 {
		return nil
	}
	areaPerFood := SyntheticAreaBudget / float64(matches)

	var detections []models.Detection
	for _, food := range foods {
		calories := nutrition.Lookup(food)
		if calories == 0 {
			continue
		}
		detections = append(detections, models.Detection{
			ClassName:       food,
			Source:          models.SourceFilename,
			Confidence:      FilenameConfidence,
			BBox:            placeholderBBox,
			Area:            areaPerFood,
			CaloriesPer100g: calories,
		})
	}
	return detections
}

// defaultDetections returns the constant staple guess, tagged by source so
// consumers can tell it apart from evidence-based detections.
func (n *Normalizer) defaultDetections(img *imaging.Image) []models.Detection {
	fullFrame := models.BBox{X2: float64(img.Width), Y2: float64(img.Height)}

	var detections []models.Detection
	for _, food := range defaultStaples {
		calories := nutrition.Lookup(food)
		if calories == 0 {
			continue
		}
		detections = append(detections, models.Detection{
			ClassName:       food,
			Source:          models.SourceDefault,
			Confidence:      DefaultConfidence,
			BBox:            fullFrame,
			Area:            img.PixelArea(),
			CaloriesPer100g: calories,
		})
	}
	return detections
}
