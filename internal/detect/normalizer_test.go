package detect

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
)

// stubDetector returns a fixed result, standing in for a real backend.
type stubDetector struct {
	detections []RawDetection
	err        error
}

func (s *stubDetector) Detect(ctx context.Context, img *imaging.Image) ([]RawDetection, error) {
	return s.detections, s.err
}

func (s *stubDetector) Name() string { return "stub" }

func testImage(name string) *imaging.Image {
	return &imaging.Image{Name: name, Width: 640, Height: 480}
}

func bboxPtr(x1, y1, x2, y2 float64) *models.BBox {
	return &models.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func normalizerOver(d Detector, defaultGuess bool) *Normalizer {
	return NewNormalizer(d, defaultGuess, zap.NewNop())
}

func TestNormalize_BackendDetections(t *testing.T) {
	stub := &stubDetector{detections: []RawDetection{
		{Label: "Rice", Confidence: 0.91, BBox: bboxPtr(10, 10, 210, 110)},
		{Label: "bowl", Confidence: 0.85, BBox: bboxPtr(0, 0, 640, 480)},
		{Label: "fork", Confidence: 0.88, BBox: bboxPtr(500, 0, 540, 200)},
		{Label: "xyzfood", Confidence: 0.95, BBox: bboxPtr(0, 0, 50, 50)},
	}}

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("plate.jpg"))

	if len(got) != 2 {
		t.Fatalf("expected 2 detections, got %d: %+v", len(got), got)
	}

	rice := got[0]
	if rice.ClassName != "rice" || rice.CaloriesPer100g != 130 || rice.Source != models.SourceModel {
		t.Errorf("unexpected rice detection: %+v", rice)
	}
	if rice.Area != 200*100 {
		t.Errorf("rice area = %v, expected %v", rice.Area, 200*100)
	}

	bowl := got[1]
	if bowl.ClassName != "bowl" || bowl.CaloriesPer100g != 0 {
		t.Errorf("expected contextual bowl with 0 kcal, got %+v", bowl)
	}
	if !bowl.Contextual() {
		t.Error("bowl should be contextual")
	}
}

func TestNormalize_RawAreaOverridesBBox(t *testing.T) {
	area := 100000.0
	stub := &stubDetector{detections: []RawDetection{
		{Label: "arroz", Confidence: 0.9, BBox: bboxPtr(0, 0, 316, 316), RawArea: &area},
	}}

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("plate.jpg"))
	if len(got) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(got))
	}
	if got[0].Area != 100000.0 {
		t.Errorf("area = %v, expected 100000", got[0].Area)
	}
}

func TestNormalize_ClassifierConfidenceThreshold(t *testing.T) {
	stub := &stubDetector{detections: []RawDetection{
		{Label: "arroz", Confidence: 0.6},
		{Label: "feijao", Confidence: 0.2}, // below threshold, dropped as noise
	}}

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("img_0001.jpg"))
	if len(got) != 1 {
		t.Fatalf("expected 1 detection, got %d: %+v", len(got), got)
	}
	if got[0].ClassName != "arroz" {
		t.Errorf("retained %q, expected arroz", got[0].ClassName)
	}
	// Classifier-style results get a synthetic full-frame box.
	if got[0].Area != 640*480 {
		t.Errorf("area = %v, expected full frame %v", got[0].Area, 640*480)
	}
}

func TestNormalize_FilenameCompositePattern(t *testing.T) {
	stub := &stubDetector{} // backend yields nothing

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("arroz_feijao.jpg"))

	if len(got) != 2 {
		t.Fatalf("expected 2 detections, got %d: %+v", len(got), got)
	}
	if got[0].ClassName != "arroz" || got[1].ClassName != "feijao" {
		t.Errorf("expected [arroz feijao] in order, got [%s %s]", got[0].ClassName, got[1].ClassName)
	}
	for _, d := range got {
		if d.Confidence != FilenameConfidence {
			t.Errorf("%s confidence = %v, expected %v", d.ClassName, d.Confidence, FilenameConfidence)
		}
		if d.Area != SyntheticAreaBudget/2 {
			t.Errorf("%s area = %v, expected %v", d.ClassName, d.Area, SyntheticAreaBudget/2)
		}
		if d.Source != models.SourceFilename {
			t.Errorf("%s source = %v, expected filename", d.ClassName, d.Source)
		}
		if d.BBox != placeholderBBox {
			t.Errorf("%s bbox = %+v, expected placeholder", d.ClassName, d.BBox)
		}
	}
}

func TestNormalize_FilenameSingleKeyword(t *testing.T) {
	stub := &stubDetector{}

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("Banana_prato.PNG"))

	if len(got) != 1 {
		t.Fatalf("expected 1 detection, got %d: %+v", len(got), got)
	}
	d := got[0]
	if d.ClassName != "banana" || d.CaloriesPer100g != 89 {
		t.Errorf("unexpected detection: %+v", d)
	}
	if d.Area != SyntheticAreaBudget {
		t.Errorf("area = %v, expected full budget %v", d.Area, SyntheticAreaBudget)
	}
}

func TestNormalize_FilenamePatternStopsScan(t *testing.T) {
	stub := &stubDetector{}

	// The stem also contains "frango", but the composite pattern hit must
	// prevent any further label scanning.
	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("frango_arroz_feijao.jpg"))

	if len(got) != 2 {
		t.Fatalf("expected 2 detections from pattern, got %d: %+v", len(got), got)
	}
	if got[0].ClassName != "arroz" || got[1].ClassName != "feijao" {
		t.Errorf("expected [arroz feijao], got [%s %s]", got[0].ClassName, got[1].ClassName)
	}
}

func TestNormalize_BackendErrorEntersFallback(t *testing.T) {
	stub := &stubDetector{err: errors.New("connection refused")}

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("arroz_feijao.jpg"))
	if len(got) != 2 {
		t.Fatalf("backend failure should fall back to filename, got %d detections", len(got))
	}
}

func TestNormalize_DefaultGuessTagged(t *testing.T) {
	stub := &stubDetector{}

	got := normalizerOver(stub, true).Normalize(context.Background(), testImage("img_0001.jpg"))

	if len(got) != 3 {
		t.Fatalf("expected 3 default staples, got %d: %+v", len(got), got)
	}
	expected := []string{"arroz", "feijão", "frango"}
	for i, d := range got {
		if d.ClassName != expected[i] {
			t.Errorf("staple %d = %q, expected %q", i, d.ClassName, expected[i])
		}
		if d.Confidence != DefaultConfidence {
			t.Errorf("%s confidence = %v, expected %v", d.ClassName, d.Confidence, DefaultConfidence)
		}
		if d.Source != models.SourceDefault {
			t.Errorf("%s source = %v, expected default", d.ClassName, d.Source)
		}
	}
}

func TestNormalize_NoGuessWithoutDegradedMode(t *testing.T) {
	stub := &stubDetector{}

	got := normalizerOver(stub, false).Normalize(context.Background(), testImage("img_0001.jpg"))
	if len(got) != 0 {
		t.Fatalf("expected no detections, got %d: %+v", len(got), got)
	}
}
