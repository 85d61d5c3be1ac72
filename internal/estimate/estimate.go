package estimate

import (
	"math"
	"strings"

	"github.com/aronrissato/CarboPratos/internal/models"
)

// Physical assumptions behind the area-to-mass heuristic. These constants
// encode the model's calibration points and are the first thing to tune.
const (
	// PlateAreaCM2 is the reference area of a 25cm-diameter circular plate
	// assumed to fill the frame: pi * 12.5^2 ~= 491.
	PlateAreaCM2 = 491.0

	// FilenamePlateFraction is the plate share assumed for detections that
	// came from filename matching, whose synthetic bbox has no spatial
	// grounding.
	FilenamePlateFraction = 0.4

	// MinPortionGrams and MaxPortionGrams clamp the estimate to a plausible
	// single-portion range. Hard floor/ceiling, not a statistical correction.
	MinPortionGrams = 30.0
	MaxPortionGrams = 400.0

	// DefaultDensity applies to foods absent from the density table, g/cm3.
	DefaultDensity = 0.8

	// DefaultHeightCM applies to foods outside every height category.
	DefaultHeightCM = 3.0
)

// densities maps normalized labels to approximate g/cm3.
var densities = map[string]float64{
	// Grãos e carboidratos
	"arroz": 0.8, "rice": 0.8, "feijao": 1.2, "feijão": 1.2, "beans": 1.2,
	"macarrao": 0.6, "macarrão": 0.6, "pasta": 0.6, "massa": 0.6,
	"batata": 0.7, "potato": 0.7, "batata_doce": 0.8, "sweet potato": 0.8,

	// Proteínas
	"frango": 0.9, "chicken": 0.9, "carne": 1.0, "beef": 1.0, "bife": 1.0,
	"peixe": 1.0, "fish": 1.0, "ovo": 0.9, "egg": 0.9, "ovos": 0.9,
	"queijo": 0.8, "cheese": 0.8,

	// Vegetais
	"cenoura": 0.7, "carrot": 0.7, "tomate": 0.6, "tomato": 0.6,
	"alface": 0.3, "lettuce": 0.3, "brocolis": 0.5, "broccoli": 0.5,
	"cebola": 0.6, "onion": 0.6, "vagem": 0.5, "green beans": 0.5,

	// Frutas
	"banana": 0.7, "maca": 0.7, "maça": 0.7, "apple": 0.7,
	"laranja": 0.6, "orange": 0.6, "uva": 0.8, "grapes": 0.8,
}

// Height categories, matched as substrings of the lower-cased label.
// First category that matches wins.
var (
	saladKeywords   = []string{"salada", "alface", "lettuce"}
	grainKeywords   = []string{"arroz", "rice", "feijao", "feijão", "beans"}
	proteinKeywords = []string{"batata", "potato", "carne", "beef", "frango", "chicken"}
)

// FoodAreaCM2 converts the detection's pixel area into real-world cm2 using
// the plate assumption. Filename-sourced detections override the pixel ratio
// with a fixed plate fraction since their bbox is a placeholder.
func FoodAreaCM2(d models.Detection, imageArea float64) float64 {
	if d.Source == models.SourceFilename {
		return PlateAreaCM2 * FilenamePlateFraction
	}
	areaRatio := d.Area / imageArea
	return areaRatio * PlateAreaCM2
}

// Density returns the approximate density of a food in g/cm3.
func Density(label string) float64 {
	if d, ok := densities[strings.ToLower(label)]; ok {
		return d
	}
	return DefaultDensity
}

// HeightCM estimates the typical serving thickness of a food on the plate.
func HeightCM(label string) float64 {
	label = strings.ToLower(label)
	switch {
	case matchesAny(label, saladKeywords):
		return 2.0
	case matchesAny(label, grainKeywords):
		return 3.0
	case matchesAny(label, proteinKeywords):
		return 4.0
	default:
		return DefaultHeightCM
	}
}

// Grams estimates the mass of one detected food in grams. Pure and
// deterministic: the same detection and image dimensions always produce the
// same result.
func Grams(d models.Detection, imageHeight, imageWidth int) float64 {
	foodAreaCM2 := FoodAreaCM2(d, float64(imageHeight)*float64(imageWidth))
	volumeCM3 := foodAreaCM2 * HeightCM(d.ClassName)
	grams := volumeCM3 * Density(d.ClassName)

	grams = math.Min(grams, MaxPortionGrams)
	grams = math.Max(grams, MinPortionGrams)
	return Round1(grams)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func matchesAny(label string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}
