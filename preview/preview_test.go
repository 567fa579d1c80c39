package preview

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		ch, _, _, _ := s.GetContent(x, y)
		sb.WriteRune(ch)
	}
	return sb.String()
}

func screenText(s tcell.Screen) string {
	_, h := s.Size()
	rows := make([]string, h)
	for y := range rows {
		rows[y] = row(s, y)
	}
	return strings.Join(rows, "\n")
}

func shop() *diagram.Diagram {
	return &diagram.Diagram{
		Entities: []diagram.Entity{
			{
				ID: "users", Name: "users", Position: geometry.Point{X: 0, Y: 0},
				Attributes: []diagram.Attribute{
					{ID: "users.id", Name: "id", Key: true, Position: geometry.Point{X: 20, Y: 200}},
				},
			},
			{ID: "orders", Name: "orders", Position: geometry.Point{X: 400, Y: 0}},
		},
		Relationships: []diagram.Relationship{
			{ID: "places", Name: "places", FromEntityID: "users", ToEntityID: "orders", Position: geometry.Point{X: 225, Y: -30}},
		},
	}
}

func TestViewport(t *testing.T) {
	v := Viewport{Origin: geometry.Point{X: -100, Y: -40}, Scale: 10}

	col, r := v.ToCell(geometry.Point{X: 0, Y: 0})
	assert.Equal(t, 10, col)
	assert.Equal(t, 2, r)

	p := v.Pan(2, 1)
	assert.Equal(t, geometry.Point{X: -80, Y: -20}, p.Origin)

	z := v.Zoom(0.5, 20, 10)
	assert.Equal(t, 5.0, z.Scale)
	assert.Equal(t, geometry.Point{X: -50, Y: 10}, z.Origin, "middle of the screen stays put")

	assert.Equal(t, v, v.Zoom(math.NaN(), 20, 10))
	assert.Equal(t, minScale, v.Zoom(1e-9, 20, 10).Scale)
}

func TestFit(t *testing.T) {
	bounds := geometry.Rect{Min: geometry.Point{X: -300, Y: 50}, Size: geometry.Size{Width: 1000, Height: 400}}
	v := Fit(bounds, 100, 30)

	x0, y0 := v.ToCell(bounds.Min)
	x1, y1 := v.ToCell(bounds.Max())
	assert.GreaterOrEqual(t, x0, 0)
	assert.GreaterOrEqual(t, y0, 0)
	assert.Less(t, x1, 100)
	assert.Less(t, y1, 30)

	tiny := Fit(bounds, 1, 1)
	assert.Equal(t, 1.0, tiny.Scale)
}

func TestBounds(t *testing.T) {
	cfg := layout.DefaultConfig()
	d := shop()

	b := Bounds(d, cfg, false)
	assert.Equal(t, geometry.Point{X: 0, Y: -30}, b.Min)
	assert.Equal(t, geometry.Point{X: 580, Y: 100}, b.Max())

	withAttrs := Bounds(d, cfg, true)
	assert.Equal(t, 236.0, withAttrs.Max().Y)

	d.Entities[1].Position = geometry.Point{X: math.NaN()}
	assert.Equal(t, 355.0, Bounds(d, cfg, false).Max().X, "non-finite entity ignored")

	empty := Bounds(&diagram.Diagram{}, cfg, true)
	assert.Equal(t, cfg.EntitySize, empty.Size)
}

func TestRenderer_Draw(t *testing.T) {
	s := newScreen(t, 80, 24)
	r := NewRenderer(s, layout.DefaultConfig())
	r.ShowAttributes = true

	v := Viewport{Origin: geometry.Point{X: -20, Y: -80}, Scale: 10}
	r.Draw(shop(), v)

	// users occupies world (0,0)-(180,70): cells (2,4)-(20,7).
	ch, _, _, _ := s.GetContent(2, 4)
	assert.Equal(t, '┌', ch)
	ch, _, _, _ = s.GetContent(20, 4)
	assert.Equal(t, '┐', ch)
	ch, _, _, _ = s.GetContent(2, 7)
	assert.Equal(t, '└', ch)
	ch, _, _, _ = s.GetContent(20, 7)
	assert.Equal(t, '┘', ch)
	assert.Contains(t, row(s, 5), "│      users      │")

	text := screenText(s)
	assert.Contains(t, text, "orders")
	assert.Contains(t, text, "<places>")
	assert.Contains(t, text, "(id)")
	assert.Contains(t, text, "·")

	x := strings.Index(row(s, 14), "(id)")
	require.GreaterOrEqual(t, x, 0)
	_, _, style, _ := s.GetContent(x+1, 14)
	_, _, attrs := style.Decompose()
	assert.NotZero(t, attrs&tcell.AttrUnderline, "key attribute is underlined")
}

func TestRenderer_HidesAttributes(t *testing.T) {
	s := newScreen(t, 80, 24)
	r := NewRenderer(s, layout.DefaultConfig())

	r.Draw(shop(), Viewport{Origin: geometry.Point{X: -20, Y: -80}, Scale: 10})
	assert.NotContains(t, screenText(s), "(id)")
}

func TestRenderer_SkipsDanglingRelationships(t *testing.T) {
	s := newScreen(t, 80, 24)
	r := NewRenderer(s, layout.DefaultConfig())

	d := shop()
	d.Relationships[0].ToEntityID = "ghost"
	r.Draw(d, Viewport{Origin: geometry.Point{X: -20, Y: -80}, Scale: 10})
	assert.NotContains(t, screenText(s), "places")
}

func TestRun_Quit(t *testing.T) {
	s := newScreen(t, 80, 24)
	s.InjectKey(tcell.KeyRune, '+', tcell.ModNone)
	s.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	err := Run(context.Background(), s, shop(), layout.DefaultConfig(), false)
	require.NoError(t, err)
	assert.Contains(t, screenText(s), "(id)", "attributes toggled on before quitting")
}

func TestRun_ContextCancelled(t *testing.T) {
	s := newScreen(t, 80, 24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, s, shop(), layout.DefaultConfig(), false)
	assert.ErrorIs(t, err, context.Canceled)
}
