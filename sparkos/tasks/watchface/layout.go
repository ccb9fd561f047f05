package watchface

import "image"

const (
	timeHeight      = 50
	dateHeight      = 30
	rightMargin     = 10
	weekCellWidth   = 18
	weekCellHeight  = 30
	underlineWidth  = 18
	underlineHeight = 3
	suffixWidth     = 40
)

// LayoutRects are element frames for one set of unobstructed bounds.
type LayoutRects struct {
	Bounds image.Rectangle

	Time image.Rectangle
	Date image.Rectangle

	// DateMonth and DateSuffix split Date into "October" and "6th".
	DateMonth  image.Rectangle
	DateSuffix image.Rectangle

	Week [7]image.Rectangle
}

// Underline returns the indicator frame under weekday cell i.
func (l LayoutRects) Underline(i int) image.Rectangle {
	if i < 0 || i >= len(l.Week) {
		return image.Rectangle{}
	}
	cell := l.Week[i]
	cx := (cell.Min.X + cell.Max.X) / 2
	return image.Rect(cx-underlineWidth/2, cell.Max.Y, cx+underlineWidth/2, cell.Max.Y+underlineHeight)
}

// ComputeLayout places the elements inside bounds.
//
// The time row is vertically centered and right aligned with a margin, the
// date row sits directly above it and the weekday cells are centered in the
// band between the time row and the bottom of bounds.
func ComputeLayout(bounds image.Rectangle) LayoutRects {
	l := LayoutRects{Bounds: bounds}

	right := bounds.Max.X - rightMargin
	if right < bounds.Min.X {
		right = bounds.Min.X
	}
	timeY := bounds.Min.Y + (bounds.Dy()-timeHeight)/2
	l.Time = image.Rect(bounds.Min.X, timeY, right, timeY+timeHeight)
	l.Date = image.Rect(bounds.Min.X, timeY-dateHeight, right, timeY)

	suffixX := right - suffixWidth
	if suffixX < bounds.Min.X {
		suffixX = bounds.Min.X
	}
	l.DateSuffix = image.Rect(suffixX, l.Date.Min.Y, right, l.Date.Max.Y)
	l.DateMonth = image.Rect(bounds.Min.X, l.Date.Min.Y, suffixX, l.Date.Max.Y)

	cellW := weekCellWidth
	if bounds.Dx() < 7*cellW {
		cellW = bounds.Dx() / 7
	}
	x0 := bounds.Min.X + (bounds.Dx()-7*cellW)/2
	band := bounds.Max.Y - l.Time.Max.Y
	y0 := l.Time.Max.Y
	if band > weekCellHeight {
		y0 += (band - weekCellHeight) / 2
	}
	for i := range l.Week {
		x := x0 + i*cellW
		l.Week[i] = image.Rect(x, y0, x+cellW, y0+weekCellHeight)
	}
	return l
}

// Engine recomputes the layout only when the bounds change.
type Engine struct {
	applied bool
	rects   LayoutRects
}

// Apply returns the layout for bounds and whether it differs from the last
// applied one. Identical bounds are a no-op.
func (e *Engine) Apply(bounds image.Rectangle) (LayoutRects, bool) {
	if e.applied && e.rects.Bounds.Eq(bounds) {
		return e.rects, false
	}
	e.rects = ComputeLayout(bounds)
	e.applied = true
	return e.rects, true
}
