package plate

import (
	"context"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/detect"
	"github.com/aronrissato/CarboPratos/internal/estimate"
	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
)

// Calculator turns one image into a PlateResult: normalize detections,
// estimate each food's mass, convert to calories and aggregate.
type Calculator struct {
	normalizer *detect.Normalizer
	logger     *zap.Logger
}

func NewCalculator(normalizer *detect.Normalizer, logger *zap.Logger) *Calculator {
	return &Calculator{
		normalizer: normalizer,
		logger:     logger,
	}
}

// CalculatePlate loads the image at path and aggregates its calories. The
// returned error covers only missing or undecodable images; everything past
// loading degrades gracefully inside the normalizer.
func (c *Calculator) CalculatePlate(ctx context.Context, imagePath string) (*models.PlateResult, error) {
	img, err := imaging.Load(imagePath)
	if err != nil {
		return nil, err
	}
	return c.CalculateFromImage(ctx, img), nil
}

// CalculateFromImage aggregates calories for an already-loaded image.
//
// The total is summed over unrounded per-food calories and rounded once at
// the end; rounding each line first would compound the error. Contextual
// detections (bowl, cup) keep their detail line but contribute zero.
func (c *Calculator) CalculateFromImage(ctx context.Context, img *imaging.Image) *models.PlateResult {
	detections := c.normalizer.Normalize(ctx, img)

	result := &models.PlateResult{
		ImagePath:   img.Path,
		FoodCount:   len(detections),
		FoodDetails: []models.FoodDetail{},
	}
	if result.ImagePath == "" {
		result.ImagePath = img.Name
	}

	var totalCalories float64
	for _, detection := range detections {
		grams := estimate.Grams(detection, img.Height, img.Width)
		calories := float64(detection.CaloriesPer100g) * grams / 100

		totalCalories += calories

		isDefault := detection.Source == models.SourceDefault
		if isDefault {
			result.LowConfidenceDefault = true
		}

		result.FoodDetails = append(result.FoodDetails, models.FoodDetail{
			Food:                 detection.ClassName,
			WeightGrams:          grams,
			Calories:             estimate.Round1(calories),
			Confidence:           estimate.Round2(detection.Confidence),
			LowConfidenceDefault: isDefault,
		})
	}

	result.TotalCalories = estimate.Round1(totalCalories)

	c.logger.Debug("Plate calculated",
		zap.String("image", img.Name),
		zap.Int("foods", result.FoodCount),
		zap.Float64("total_kcal", result.TotalCalories))

	return result
}
