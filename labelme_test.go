package labelme2yolo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLabelMe(t *testing.T) {
	doc := `{
		"version": "5.2.1",
		"flags": {},
		"shapes": [
			{"label": "cat", "points": [[10, 10], [50.5, 60]], "group_id": null,
				"shape_type": "rectangle", "flags": {}},
			{"label": "ball", "points": [[100, 100], [130, 100]], "shape_type": "circle"}
		],
		"imagePath": "..\\images\\a.jpg",
		"imageData": null,
		"imageHeight": 480,
		"imageWidth": 640
	}`

	f, err := ParseLabelMe([]byte(doc))
	if err != nil {
		t.Fatalf("ParseLabelMe() error = %v", err)
	}

	if f.ImagePath != `..\images\a.jpg` || f.ImageWidth != 640 || f.ImageHeight != 480 {
		t.Errorf("got image %q %dx%d", f.ImagePath, f.ImageWidth, f.ImageHeight)
	}
	if len(f.Shapes) != 2 {
		t.Fatalf("got %d shapes, want 2", len(f.Shapes))
	}

	s := f.Shapes[0]
	if s.Label != "cat" || s.ShapeType != "rectangle" || s.IsCircle() {
		t.Errorf("unexpected first shape %+v", s)
	}
	if len(s.Points) != 2 || s.Points[1].X != 50.5 || s.Points[1].Y != 60 {
		t.Errorf("unexpected points %v", s.Points)
	}
	if !f.Shapes[1].IsCircle() {
		t.Errorf("second shape is not a circle: %+v", f.Shapes[1])
	}
}

func TestParseLabelMeSingleShape(t *testing.T) {
	doc := `{"shapes": {"label": "dog", "points": [[1, 2], [3, 4], [5, 6]], "shape_type": "polygon"},
		"imagePath": "b.png"}`

	f, err := ParseLabelMe([]byte(doc))
	if err != nil {
		t.Fatalf("ParseLabelMe() error = %v", err)
	}
	if len(f.Shapes) != 1 || f.Shapes[0].Label != "dog" || len(f.Shapes[0].Points) != 3 {
		t.Errorf("unexpected shapes %+v", f.Shapes)
	}
}

func TestParseLabelMeEmptyShapes(t *testing.T) {
	f, err := ParseLabelMe([]byte(`{"shapes": [], "imagePath": "c.png"}`))
	if err != nil {
		t.Fatalf("ParseLabelMe() error = %v", err)
	}
	if len(f.Shapes) != 0 {
		t.Errorf("got %d shapes, want 0", len(f.Shapes))
	}
}

func TestParseLabelMeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		missing bool
	}{
		{"no shapes", `{"imagePath": "a.png"}`, true},
		{"null shapes", `{"shapes": null, "imagePath": "a.png"}`, true},
		{"invalid json", `{"shapes": [`, false},
		{"invalid shapes", `{"shapes": "cat"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabelMe([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseLabelMe() succeeded")
			}
			if got := errors.Is(err, ErrMissingShapes); got != tt.missing {
				t.Errorf("errors.Is(%v, ErrMissingShapes) = %v, want %v", err, got, tt.missing)
			}
		})
	}
}

func TestParseLabelMeMalformedPoints(t *testing.T) {
	doc := `{"shapes": [{"label": "a", "points": [[1], [2, 3], [4, 5, 6]], "shape_type": "polygon"},
		{"label": "b", "points": [[1, 2], [3, 4]], "shape_type": "rectangle"}]}`

	f, err := ParseLabelMe([]byte(doc))
	if err != nil {
		t.Fatalf("ParseLabelMe() error = %v", err)
	}
	if len(f.Shapes) != 2 {
		t.Fatalf("got %d shapes, want 2", len(f.Shapes))
	}
	if s := f.Shapes[0]; s.Label != "a" || len(s.Points) != 1 || s.MalformedPoints != 2 {
		t.Errorf("unexpected first shape %+v", s)
	}
	if s := f.Shapes[1]; len(s.Points) != 2 || s.MalformedPoints != 0 {
		t.Errorf("unexpected second shape %+v", s)
	}
}

func TestFromLabelMe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	if err := os.WriteFile(path, []byte(`{"imagePath": "a.png"}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := FromLabelMe(path); !errors.Is(err, ErrMissingShapes) {
		t.Errorf("FromLabelMe() error = %v, want ErrMissingShapes", err)
	}
	if _, err := FromLabelMe(path + ".missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("FromLabelMe() error = %v, want a not exist error", err)
	}
}
