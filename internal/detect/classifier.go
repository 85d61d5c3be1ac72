package detect

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/imaging"
)

// RuleClassifier is the degraded-mode backend used when no recognition
// service is configured. It has no visual model: it classifies by matching
// food keywords against the image's filename and reports classifier-style
// results without bounding boxes. A pipeline built on it enables the
// normalizer's default-guess step.
type RuleClassifier struct {
	logger *zap.Logger
}

// foodCategory lists the label variants that identify one food concept in a
// filename. Ordered so matching stays deterministic.
type foodCategory struct {
	name     string
	keywords []string
}

var foodCategories = []foodCategory{
	{"arroz", []string{"arroz", "rice"}},
	{"feijao", []string{"feijão", "feijao", "beans"}},
	{"frango", []string{"frango", "chicken"}},
	{"carne", []string{"carne", "beef", "bife"}},
	{"batata", []string{"batata", "potato"}},
	{"cenoura", []string{"cenoura", "carrot"}},
	{"tomate", []string{"tomate", "tomato"}},
	{"alface", []string{"alface", "lettuce"}},
	{"queijo", []string{"queijo", "cheese"}},
	{"pao", []string{"pão", "pao", "bread"}},
	{"macarrao", []string{"macarrão", "macarrao", "pasta", "massa"}},
	{"banana", []string{"banana"}},
	{"maca", []string{"maçã", "maca", "apple"}},
	{"laranja", []string{"laranja", "orange"}},
	{"uva", []string{"uva", "grapes"}},
}

func NewRuleClassifier(logger *zap.Logger) *RuleClassifier {
	return &RuleClassifier{logger: logger}
}

func (rc *RuleClassifier) Name() string {
	return "rule-based"
}

// Detect matches each food category's keywords against the filename stem.
// The first matching keyword of a category yields one classifier-style
// detection; remaining keywords of that category are skipped.
func (rc *RuleClassifier) Detect(ctx context.Context, img *imaging.Image) ([]RawDetection, error) {
	stem := img.Stem()

	var detections []RawDetection
	for _, category := range foodCategories {
		for _, keyword := range category.keywords {
			if strings.Contains(stem, keyword) {
				detections = append(detections, RawDetection{
					Label:      keyword,
					Confidence: FilenameConfidence,
				})
				break
			}
		}
	}

	if len(detections) > 0 {
		rc.logger.Debug("Rule-based classification from filename",
			zap.String("image", img.Name),
			zap.Int("matches", len(detections)))
	}

	return detections, nil
}
