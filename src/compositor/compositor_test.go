package compositor

import (
	"image"
	"image/color"
	"testing"

	"win-dialog-shot/src/geometry"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	test  = color.RGBA{10, 20, 30, 255}
	red   = color.RGBA{200, 0, 0, 255}
	blue  = color.RGBA{0, 0, 200, 255}
)

func solid(r image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(r)
	Fill(img, c)
	return img
}

func checkPixels(t *testing.T, img *image.RGBA, inside image.Rectangle, in, out color.RGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			want := out
			if image.Pt(x, y).In(inside) {
				want = in
			}
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, expected %v", x, y, got, want)
			}
		}
	}
}

func TestCompositeSingleBox(t *testing.T) {
	frame := solid(image.Rect(0, 0, 200, 100), test)
	box := geometry.Rect{Left: 50, Top: 20, Right: 150, Bottom: 80}

	canvas := New(white).Composite(frame, image.Pt(200, 100), []geometry.Rect{box})

	if canvas.Bounds() != image.Rect(0, 0, 200, 100) {
		t.Fatalf("canvas bounds = %v", canvas.Bounds())
	}
	checkPixels(t, canvas, box.Image(), test, white)
}

func TestCompositePrimaryWinsOverlap(t *testing.T) {
	// Left half of the frame is red, right half blue. The owner box covers the
	// left 120 columns and the primary box starts at column 80, so columns
	// 80..119 must carry the primary's (frame) pixels, not a second owner copy.
	frame := image.NewRGBA(image.Rect(0, 0, 200, 100))
	Fill(frame, red)
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			frame.SetRGBA(x, y, blue)
		}
	}
	owner := geometry.Rect{Left: 0, Top: 0, Right: 120, Bottom: 60}
	primary := geometry.Rect{Left: 80, Top: 40, Right: 200, Bottom: 100}

	canvas := New(white).Composite(frame, image.Pt(200, 100), []geometry.Rect{owner, primary})

	tests := []struct {
		p    image.Point
		want color.RGBA
	}{
		{image.Pt(10, 10), red},    // owner only
		{image.Pt(110, 10), blue},  // owner only, right half of frame
		{image.Pt(90, 50), red},    // overlap, frame pixel at same spot
		{image.Pt(150, 90), blue},  // primary only
		{image.Pt(10, 90), white},  // neither
		{image.Pt(190, 10), white}, // neither
	}
	for _, tt := range tests {
		if got := canvas.RGBAAt(tt.p.X, tt.p.Y); got != tt.want {
			t.Errorf("pixel %v = %v, expected %v", tt.p, got, tt.want)
		}
	}
}

func TestCompositeClampsOutOfBoundsBox(t *testing.T) {
	frame := solid(image.Rect(0, 0, 50, 50), test)
	box := geometry.Rect{Left: 30, Top: -10, Right: 80, Bottom: 20}

	canvas := New(white).Composite(frame, image.Pt(50, 50), []geometry.Rect{box})

	checkPixels(t, canvas, image.Rect(30, 0, 50, 20), test, white)
}

func TestCompositeSkipsEmptyBox(t *testing.T) {
	frame := solid(image.Rect(0, 0, 20, 20), test)
	canvas := New(white).Composite(frame, image.Pt(20, 20), []geometry.Rect{{Left: 5, Top: 5, Right: 5, Bottom: 5}})
	checkPixels(t, canvas, image.Rectangle{}, test, white)
}

func TestCompositeFrameWithOffsetBounds(t *testing.T) {
	// Frames may keep screen coordinates in their bounds.
	frame := solid(image.Rect(-300, 100, -100, 200), test)
	box := geometry.Rect{Left: 10, Top: 10, Right: 40, Bottom: 30}

	canvas := New(white).Composite(frame, image.Pt(200, 100), []geometry.Rect{box})

	checkPixels(t, canvas, box.Image(), test, white)
}

func TestCompositeShortFrameLeavesBackground(t *testing.T) {
	frame := solid(image.Rect(0, 0, 100, 40), test)
	box := geometry.Rect{Left: 0, Top: 0, Right: 100, Bottom: 80}

	canvas := New(white).Composite(frame, image.Pt(100, 80), []geometry.Rect{box})

	checkPixels(t, canvas, image.Rect(0, 0, 100, 40), test, white)
}

func TestCompositeOutputIsOpaque(t *testing.T) {
	frame := solid(image.Rect(0, 0, 10, 10), color.RGBA{0, 0, 0, 0})
	c := New(color.RGBA{1, 2, 3, 0})
	canvas := c.Composite(frame, image.Pt(20, 20), []geometry.Rect{{Left: 0, Top: 0, Right: 10, Bottom: 10}})
	if !canvas.Opaque() {
		t.Error("expected opaque canvas")
	}
}

// readLog records every frame pixel the compositor samples, in order.
type readLog struct {
	*image.RGBA
	reads []image.Point
}

func (r *readLog) At(x, y int) color.Color {
	r.reads = append(r.reads, image.Pt(x, y))
	return r.RGBA.At(x, y)
}

func (r *readLog) RGBA64At(x, y int) color.RGBA64 {
	r.reads = append(r.reads, image.Pt(x, y))
	return r.RGBA.RGBA64At(x, y)
}

func TestCompositePastesInSliceOrder(t *testing.T) {
	frame := &readLog{RGBA: solid(image.Rect(0, 0, 50, 50), test)}
	owner := geometry.Rect{Left: 0, Top: 0, Right: 30, Bottom: 30}
	primary := geometry.Rect{Left: 20, Top: 20, Right: 50, Bottom: 50}

	New(white).Composite(frame, image.Pt(50, 50), []geometry.Rect{owner, primary})

	if len(frame.reads) == 0 {
		t.Fatal("compositor never read the frame")
	}
	first, last := frame.reads[0], frame.reads[len(frame.reads)-1]
	if !first.In(owner.Image()) || first.In(primary.Image()) {
		t.Errorf("first read %v is not owner-only", first)
	}
	if !last.In(primary.Image()) || last.In(owner.Image()) {
		t.Errorf("last read %v is not primary-only", last)
	}
}
