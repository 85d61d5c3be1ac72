package plate

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/detect"
	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
)

type stubDetector struct {
	detections []detect.RawDetection
	err        error
}

func (s *stubDetector) Detect(ctx context.Context, img *imaging.Image) ([]detect.RawDetection, error) {
	return s.detections, s.err
}

func (s *stubDetector) Name() string { return "stub" }

func newCalculator(stub *stubDetector, defaultGuess bool) *Calculator {
	normalizer := detect.NewNormalizer(stub, defaultGuess, zap.NewNop())
	return NewCalculator(normalizer, zap.NewNop())
}

func testImage(name string) *imaging.Image {
	return &imaging.Image{Name: name, Width: 640, Height: 480}
}

func rawArroz() detect.RawDetection {
	area := 100000.0
	return detect.RawDetection{
		Label:      "arroz",
		Confidence: 0.875,
		BBox:       &models.BBox{X1: 0, Y1: 0, X2: 316, Y2: 316},
		RawArea:    &area,
	}
}

func TestCalculateFromImage_SingleDetection(t *testing.T) {
	calc := newCalculator(&stubDetector{detections: []detect.RawDetection{rawArroz()}}, false)

	result := calc.CalculateFromImage(context.Background(), testImage("plate.jpg"))

	if result.FoodCount != 1 {
		t.Fatalf("food_count = %d, expected 1", result.FoodCount)
	}

	food := result.FoodDetails[0]
	if food.Food != "arroz" {
		t.Errorf("food = %q, expected arroz", food.Food)
	}
	// 100000px over 640x480 -> 383.6g -> 130 * 383.6 / 100 = 498.7 kcal.
	if food.WeightGrams != 383.6 {
		t.Errorf("weight = %v, expected 383.6", food.WeightGrams)
	}
	if food.Calories != 498.7 {
		t.Errorf("calories = %v, expected 498.7", food.Calories)
	}
	if food.Confidence != 0.88 {
		t.Errorf("confidence = %v, expected 0.88", food.Confidence)
	}
	if result.TotalCalories != 498.7 {
		t.Errorf("total = %v, expected 498.7", result.TotalCalories)
	}
}

func TestCalculateFromImage_TotalRoundedOnceNotPerLine(t *testing.T) {
	// Three identical foods at 498.68 kcal unrounded. Summing the rounded
	// lines would give 1496.1; the correct total rounds the sum: 1496.0.
	stub := &stubDetector{detections: []detect.RawDetection{rawArroz(), rawArroz(), rawArroz()}}
	calc := newCalculator(stub, false)

	result := calc.CalculateFromImage(context.Background(), testImage("plate.jpg"))

	if result.FoodCount != 3 {
		t.Fatalf("food_count = %d, expected 3", result.FoodCount)
	}
	if result.TotalCalories != 1496.0 {
		t.Errorf("total = %v, expected 1496.0 (round once after summation)", result.TotalCalories)
	}
	var sumOfRounded float64
	for _, f := range result.FoodDetails {
		sumOfRounded += f.Calories
	}
	if math.Abs(sumOfRounded-1496.1) > 1e-9 {
		t.Errorf("sum of rounded lines = %v, expected 1496.1", sumOfRounded)
	}
}

func TestCalculateFromImage_ContextualContributesZero(t *testing.T) {
	stub := &stubDetector{detections: []detect.RawDetection{
		rawArroz(),
		{Label: "bowl", Confidence: 0.8, BBox: &models.BBox{X2: 640, Y2: 480}},
	}}
	calc := newCalculator(stub, false)

	result := calc.CalculateFromImage(context.Background(), testImage("plate.jpg"))

	if result.FoodCount != 2 {
		t.Fatalf("food_count = %d, expected 2 (contextual retained)", result.FoodCount)
	}
	if result.TotalCalories != 498.7 {
		t.Errorf("total = %v, expected 498.7 (bowl adds nothing)", result.TotalCalories)
	}
	bowl := result.FoodDetails[1]
	if bowl.Food != "bowl" || bowl.Calories != 0 {
		t.Errorf("unexpected contextual line: %+v", bowl)
	}
}

func TestCalculateFromImage_EmptyDetections(t *testing.T) {
	calc := newCalculator(&stubDetector{}, false)

	result := calc.CalculateFromImage(context.Background(), testImage("img_0001.jpg"))

	if result.TotalCalories != 0 {
		t.Errorf("total = %v, expected 0", result.TotalCalories)
	}
	if result.FoodCount != 0 {
		t.Errorf("food_count = %d, expected 0", result.FoodCount)
	}
	if result.FoodDetails == nil || len(result.FoodDetails) != 0 {
		t.Errorf("food_details = %v, expected empty slice", result.FoodDetails)
	}
	if result.Failed() {
		t.Error("empty detections must not be an error")
	}
}

func TestCalculateFromImage_DefaultGuessMarked(t *testing.T) {
	calc := newCalculator(&stubDetector{}, true)

	result := calc.CalculateFromImage(context.Background(), testImage("img_0001.jpg"))

	if !result.LowConfidenceDefault {
		t.Error("result from default guess must carry the low-confidence marker")
	}
	if result.FoodCount != 3 {
		t.Fatalf("food_count = %d, expected 3", result.FoodCount)
	}
	for _, f := range result.FoodDetails {
		if !f.LowConfidenceDefault {
			t.Errorf("food %s missing low-confidence marker", f.Food)
		}
		if f.Confidence != 0.5 {
			t.Errorf("food %s confidence = %v, expected 0.5", f.Food, f.Confidence)
		}
	}
}

func TestCalculatePlate_MissingImage(t *testing.T) {
	calc := newCalculator(&stubDetector{}, false)

	_, err := calc.CalculatePlate(context.Background(), "/nonexistent/plate.jpg")
	if err == nil {
		t.Fatal("expected error for missing image")
	}
}
