// Package compositor rebuilds a capture so that only the captured windows keep
// their pixels and everything else becomes a flat background colour.
package compositor

import (
	"image"
	"image/color"
	"log"

	"golang.org/x/image/draw"

	"win-dialog-shot/src/geometry"
)

// Compositor holds the fill colour used for pixels outside every box.
type Compositor struct {
	Background color.RGBA
}

// New returns a Compositor; the background alpha is forced to opaque.
func New(background color.RGBA) *Compositor {
	background.A = 0xff
	return &Compositor{Background: background}
}

// Composite allocates a size.X by size.Y canvas filled with the background and
// pastes each box of frame at the same local position, in slice order.
// frame must cover the enclosing region with its Min at the region's origin.
// Boxes are clipped to the canvas and to the frame; nothing outside either is read or written.
func (c *Compositor) Composite(frame image.Image, size image.Point, boxes []geometry.Rect) *image.RGBA {
	canvas := image.NewRGBA(image.Rectangle{Max: size})
	Fill(canvas, c.Background)

	origin := frame.Bounds().Min
	for _, box := range boxes {
		dst := box.Image().Intersect(canvas.Bounds())
		if dst.Empty() {
			log.Printf("compositor: box %s is outside the %dx%d canvas, skipping", box, size.X, size.Y)
			continue
		}
		if dst != box.Image() {
			log.Printf("compositor: box %s clamped to %v", box, dst)
		}
		draw.Draw(canvas, dst, frame, origin.Add(dst.Min), draw.Src)
		opaque(canvas, dst)
	}
	return canvas
}

// Fill paints every pixel of img with c.
func Fill(img *image.RGBA, c color.RGBA) {
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// opaque drops any alpha the grabbed frame carried; the clipboard bitmap is 24-bit.
func opaque(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			img.Pix[row+x*4+3] = 0xff
		}
	}
}
