package preview

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
)

// Box drawing characters for entities.
const (
	topLeft     = '┌'
	topRight    = '┐'
	bottomLeft  = '└'
	bottomRight = '┘'
	horizontal  = '─'
	vertical    = '│'
	edgeDot     = '·'
)

// maxLineCells bounds the length of a rasterised link.
const maxLineCells = 1 << 16

// Styles holds the tcell style of each element.
type Styles struct {
	Entity    tcell.Style
	Marker    tcell.Style
	Attribute tcell.Style
	Key       tcell.Style
	Edge      tcell.Style
}

// DefaultStyles returns the preview color scheme.
func DefaultStyles() Styles {
	base := tcell.StyleDefault
	return Styles{
		Entity:    base.Foreground(tcell.ColorAqua).Bold(true),
		Marker:    base.Foreground(tcell.ColorYellow),
		Attribute: base.Foreground(tcell.ColorSilver),
		Key:       base.Foreground(tcell.ColorSilver).Underline(true),
		Edge:      base.Foreground(tcell.ColorGray),
	}
}

// Renderer draws a diagram onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
	cfg    layout.Config
	Styles Styles
	// ShowAttributes draws attributes and their links.
	ShowAttributes bool
}

// NewRenderer creates a renderer using the node sizes of cfg.
func NewRenderer(screen tcell.Screen, cfg layout.Config) *Renderer {
	return &Renderer{screen: screen, cfg: cfg, Styles: DefaultStyles()}
}

// Draw clears the screen and paints d through v. Links are drawn first so
// nodes cover them. The caller calls Show.
func (r *Renderer) Draw(d *diagram.Diagram, v Viewport) {
	r.screen.Clear()

	centers := make(map[string]geometry.Point, len(d.Entities))
	for _, e := range d.Entities {
		if _, dup := centers[e.ID]; !dup {
			centers[e.ID] = geometry.RectAt(e.Position, r.cfg.EntitySize).Center()
		}
	}

	for _, rel := range d.Relationships {
		from, okFrom := centers[rel.FromEntityID]
		to, okTo := centers[rel.ToEntityID]
		if !okFrom || !okTo {
			continue
		}
		mc := geometry.RectAt(rel.Position, r.cfg.MarkerSize).Center()
		r.line(v, from, mc, r.Styles.Edge)
		r.line(v, mc, to, r.Styles.Edge)
	}

	if r.ShowAttributes {
		for _, e := range d.Entities {
			ec := centers[e.ID]
			for _, a := range e.Attributes {
				ac := geometry.RectAt(a.Position, r.cfg.AttributeSize).Center()
				r.line(v, ec, ac, r.Styles.Edge)
			}
		}
		for _, e := range d.Entities {
			for _, a := range e.Attributes {
				style := r.Styles.Attribute
				if a.Key {
					style = r.Styles.Key
				}
				ac := geometry.RectAt(a.Position, r.cfg.AttributeSize).Center()
				r.label(v, ac, "("+a.Name+")", style)
			}
		}
	}

	for _, rel := range d.Relationships {
		if _, ok := centers[rel.FromEntityID]; !ok {
			continue
		}
		if _, ok := centers[rel.ToEntityID]; !ok {
			continue
		}
		text := "◇"
		if rel.Name != "" {
			text = "<" + rel.Name + ">"
		}
		r.label(v, geometry.RectAt(rel.Position, r.cfg.MarkerSize).Center(), text, r.Styles.Marker)
	}

	for _, e := range d.Entities {
		name := e.Name
		if name == "" {
			name = e.ID
		}
		r.box(v, geometry.RectAt(e.Position, r.cfg.EntitySize), name, r.Styles.Entity)
	}
}

// box draws a framed rectangle with a centered title and a blank interior.
func (r *Renderer) box(v Viewport, rect geometry.Rect, title string, style tcell.Style) {
	if !rect.Min.IsFinite() {
		return
	}
	x0, y0 := v.ToCell(rect.Min)
	x1, y1 := v.ToCell(rect.Max())
	x1 = max(x1, x0+2)
	y1 = max(y1, y0+2)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			ch := ' '
			switch {
			case y == y0 && x == x0:
				ch = topLeft
			case y == y0 && x == x1:
				ch = topRight
			case y == y1 && x == x0:
				ch = bottomLeft
			case y == y1 && x == x1:
				ch = bottomRight
			case y == y0 || y == y1:
				ch = horizontal
			case x == x0 || x == x1:
				ch = vertical
			}
			r.set(x, y, ch, style)
		}
	}

	inner := x1 - x0 - 1
	title = runewidth.Truncate(title, inner, "…")
	r.text(x0+1+(inner-runewidth.StringWidth(title))/2, (y0+y1)/2, title, style)
}

// label writes s centered on world point c.
func (r *Renderer) label(v Viewport, c geometry.Point, s string, style tcell.Style) {
	if !c.IsFinite() {
		return
	}
	col, row := v.ToCell(c)
	r.text(col-runewidth.StringWidth(s)/2, row, s, style)
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.set(x, y, ch, style)
		x += runewidth.RuneWidth(ch)
	}
}

// line rasterises the segment a-b with Bresenham's algorithm.
func (r *Renderer) line(v Viewport, a, b geometry.Point, style tcell.Style) {
	if !a.IsFinite() || !b.IsFinite() {
		return
	}
	x0, y0 := v.ToCell(a)
	x1, y1 := v.ToCell(b)

	w, h := r.screen.Size()
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= w && x1 >= w) || (y0 >= h && y1 >= h) {
		return
	}

	dx, dy := abs(x1-x0), -abs(y1-y0)
	if dx-dy > maxLineCells {
		return
	}
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		r.set(x0, y0, edgeDot, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (r *Renderer) set(x, y int, ch rune, style tcell.Style) {
	w, h := r.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	r.screen.SetContent(x, y, ch, nil, style)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
