package preview

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"erd/diagram"
	"erd/layout"
)

const panStep = 4

// Run shows d on an initialised screen until the user quits or ctx ends.
// Arrow keys and hjkl pan, + and - zoom, 0 refits, a toggles attributes,
// q or Esc quits. Run does not call Fini.
func Run(ctx context.Context, screen tcell.Screen, d *diagram.Diagram, cfg layout.Config, showAttributes bool) error {
	r := NewRenderer(screen, cfg)
	r.ShowAttributes = showAttributes

	fit := func() Viewport {
		cols, rows := screen.Size()
		return Fit(Bounds(d, cfg, r.ShowAttributes), cols, rows)
	}
	v := fit()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	for {
		r.Draw(d, v)
		screen.Show()

		var ev tcell.Event
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			ev = e
		}

		cols, rows := screen.Size()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
			v = fit()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return nil
			case tcell.KeyLeft:
				v = v.Pan(-panStep, 0)
			case tcell.KeyRight:
				v = v.Pan(panStep, 0)
			case tcell.KeyUp:
				v = v.Pan(0, -panStep/2)
			case tcell.KeyDown:
				v = v.Pan(0, panStep/2)
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q':
					return nil
				case 'h':
					v = v.Pan(-panStep, 0)
				case 'l':
					v = v.Pan(panStep, 0)
				case 'k':
					v = v.Pan(0, -panStep/2)
				case 'j':
					v = v.Pan(0, panStep/2)
				case '+', '=':
					v = v.Zoom(0.8, cols, rows)
				case '-':
					v = v.Zoom(1.25, cols, rows)
				case '0':
					v = fit()
				case 'a':
					r.ShowAttributes = !r.ShowAttributes
					v = fit()
				}
			}
		}
	}
}
