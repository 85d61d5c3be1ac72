package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aronrissato/CarboPratos/internal/models"
)

const reportSuffix = "_calories.txt"

var titleCaser = cases.Title(language.Und)

// WriteReport writes the per-image text report next to (or into outputDir
// instead of) the analyzed image, named <stem>_calories.txt.
func WriteReport(result *models.PlateResult, imagePath, outputDir string) error {
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	outputPath := filepath.Join(outputDir, stem+reportSuffix)

	content := FormatReport(result, filepath.Base(imagePath))
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", outputPath, err)
	}
	return nil
}

// FormatReport renders one plate result in the fixed report layout: a
// banner, the totals, then one bullet line per food. The error variant
// renders a single error line instead.
func FormatReport(result *models.PlateResult, imageName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CALORIE ANALYSIS - %s\n", imageName)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	if result.Failed() {
		fmt.Fprintf(&b, "ERROR: %s\n", result.Err)
		return b.String()
	}

	fmt.Fprintf(&b, "Total calories: %.1f kcal\n", result.TotalCalories)
	fmt.Fprintf(&b, "Foods detected: %d\n\n", result.FoodCount)

	if len(result.FoodDetails) == 0 {
		b.WriteString("No foods were detected in the image.\n")
		return b.String()
	}

	b.WriteString("Food details:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, food := range result.FoodDetails {
		fmt.Fprintf(&b, "- %s: %.1fg (%.1f kcal) [Confidence: %.2f]",
			titleCaser.String(food.Food), food.WeightGrams, food.Calories, food.Confidence)
		if food.LowConfidenceDefault {
			b.WriteString(" (low-confidence default)")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatSummary renders the end-of-batch console summary.
func FormatSummary(summary *models.BatchSummary, results []models.PlateResult) string {
	var b strings.Builder

	b.WriteString("\nPROCESSING SUMMARY\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Images processed: %d\n", summary.Processed)
	fmt.Fprintf(&b, "Successes: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Errors: %d\n", summary.Failed)

	if summary.Succeeded > 0 {
		fmt.Fprintf(&b, "Total calories detected: %.1f kcal\n", summary.TotalCalories)
	}

	if summary.Failed > 0 {
		b.WriteString("\nErrors found:\n")
		for _, r := range results {
			if r.Failed() {
				fmt.Fprintf(&b, "  - %s: %s\n", filepath.Base(r.ImagePath), r.Err)
			}
		}
	}

	fmt.Fprintf(&b, "\nProcessing completed!\n")
	fmt.Fprintf(&b, "Result files saved in folder: %s\n", summary.Directory)

	return b.String()
}
