package region

import (
	"errors"
	"fmt"

	"win-dialog-shot/src/geometry"
)

// ErrDegenerateRegion means the enclosing rectangle has zero or negative extent.
var ErrDegenerateRegion = errors.New("degenerate capture region")

// Plan is the capture rectangle plus each window's box in its local coordinates.
type Plan struct {
	Enclosing geometry.Rect
	Primary   geometry.Rect
	Owner     *geometry.Rect
}

// Width and Height are the canvas dimensions.
func (p Plan) Width() int  { return p.Enclosing.Width() }
func (p Plan) Height() int { return p.Enclosing.Height() }

// Boxes returns the offset boxes in paste order: owner first, primary last,
// so the primary window wins wherever the two overlap.
func (p Plan) Boxes() []geometry.Rect {
	if p.Owner == nil {
		return []geometry.Rect{p.Primary}
	}
	return []geometry.Rect{*p.Owner, p.Primary}
}

// ToScreen maps a local box back to screen coordinates.
func (p Plan) ToScreen(box geometry.Rect) geometry.Rect {
	return box.Translate(p.Enclosing.Left, p.Enclosing.Top)
}

// Compute builds a Plan from the primary rect and an optional owner rect.
func Compute(primary geometry.Rect, owner *geometry.Rect) (Plan, error) {
	enclosing := primary
	if owner != nil {
		enclosing = primary.Union(*owner)
	}
	if enclosing.Empty() {
		return Plan{}, fmt.Errorf("%w: %s is %dx%d", ErrDegenerateRegion, enclosing, enclosing.Width(), enclosing.Height())
	}

	dx, dy := -enclosing.Left, -enclosing.Top
	plan := Plan{
		Enclosing: enclosing,
		Primary:   primary.Translate(dx, dy),
	}
	if owner != nil {
		box := owner.Translate(dx, dy)
		plan.Owner = &box
	}
	return plan, nil
}
