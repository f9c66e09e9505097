package hints

import (
	"image"
	"image/color"
	"testing"
)

// setRow paints a binarized row from a "B"/"W" string, starting at x=0.
func setRow(img *image.Gray, y int, pattern string) {
	for x, c := range pattern {
		v := uint8(255)
		if c == 'B' {
			v = 0
		}
		img.SetGray(x, y, color.Gray{Y: v})
	}
}

func allWhite(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestCollectFindsHorizontalPattern(t *testing.T) {
	img := allWhite(13, 5)
	setRow(img, 2, "WWWBWBBBWBWWW")

	found := Collect(img)
	if len(found) != 1 {
		t.Fatalf("expected 1 hint, got %d: %+v", len(found), found)
	}
	h := found[0]
	if h.CenterY != 2 {
		t.Errorf("CenterY = %v, want 2", h.CenterY)
	}
	if h.CenterX < 5 || h.CenterX > 7 {
		t.Errorf("CenterX = %v, want roughly 6", h.CenterX)
	}
}

func TestCollectEmptyOnBlankImage(t *testing.T) {
	img := allWhite(20, 20)
	if found := Collect(img); len(found) != 0 {
		t.Errorf("expected no hints on a blank image, got %d", len(found))
	}
}

func TestCollectFindsVerticalPattern(t *testing.T) {
	img := allWhite(5, 13)
	pattern := "WWWBWBBBWBWWW"
	for y, c := range pattern {
		v := uint8(255)
		if c == 'B' {
			v = 0
		}
		img.SetGray(2, y, color.Gray{Y: v})
	}

	found := Collect(img)
	if len(found) != 1 {
		t.Fatalf("expected 1 hint, got %d: %+v", len(found), found)
	}
	h := found[0]
	if h.CenterX != 2 {
		t.Errorf("CenterX = %v, want 2", h.CenterX)
	}
	if h.CenterY < 5 || h.CenterY > 7 {
		t.Errorf("CenterY = %v, want roughly 6", h.CenterY)
	}
}
