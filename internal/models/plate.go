package models

import "time"

// DetectionSource records which strategy produced a detection.
type DetectionSource string

const (
	SourceModel    DetectionSource = "model"
	SourceFilename DetectionSource = "filename"
	SourceDefault  DetectionSource = "default"
)

// BBox is a pixel-space bounding box (x1,y1,x2,y2).
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Area returns the box area in pixels.
func (b BBox) Area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Detection is the canonical record for one recognized food or contextual
// object. CaloriesPer100g == 0 means the label is unknown to the nutrition
// table; such detections are kept only as plate context (bowl, cup) and
// never contribute calories.
type Detection struct {
	ClassName       string          `json:"class_name"`
	Source          DetectionSource `json:"source"`
	Confidence      float64         `json:"confidence"`
	BBox            BBox            `json:"bbox"`
	Area            float64         `json:"area"`
	CaloriesPer100g int             `json:"calories_per_100g"`
}

// Contextual reports whether the detection carries no calories and exists
// only to signal plate context.
func (d Detection) Contextual() bool {
	return d.CaloriesPer100g == 0
}

// FoodDetail is one aggregated food line of a plate result.
type FoodDetail struct {
	Food                 string  `json:"food"`
	WeightGrams          float64 `json:"weight_g"`
	Calories             float64 `json:"calories"`
	Confidence           float64 `json:"confidence"`
	LowConfidenceDefault bool    `json:"low_confidence_default,omitempty"`
}

// PlateResult is the per-image outcome. Err is set on the error variant;
// the zero totals are kept so the record shape stays uniform.
type PlateResult struct {
	ImagePath            string       `json:"image_path"`
	TotalCalories        float64      `json:"total_calories"`
	FoodCount            int          `json:"food_count"`
	FoodDetails          []FoodDetail `json:"food_details"`
	LowConfidenceDefault bool         `json:"low_confidence_default,omitempty"`
	Err                  string       `json:"error,omitempty"`
}

// Failed reports whether this is the error variant of the record.
func (r PlateResult) Failed() bool {
	return r.Err != ""
}

// BatchSummary aggregates one directory run. TotalCalories covers
// successful images only.
type BatchSummary struct {
	Directory     string        `json:"directory"`
	Processed     int           `json:"processed"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	TotalCalories float64       `json:"total_calories"`
	Elapsed       time.Duration `json:"elapsed"`
}
