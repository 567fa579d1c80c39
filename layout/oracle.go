package layout

import (
	"context"
	"time"

	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
)

// Oracle suggests entity positions from outside the engine, for example an
// AI service. Implementations must honour ctx cancellation.
type Oracle interface {
	SuggestLayout(ctx context.Context, d *diagram.Diagram) (Positions, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, d *diagram.Diagram) (Positions, error)

// SuggestLayout calls f.
func (f OracleFunc) SuggestLayout(ctx context.Context, d *diagram.Diagram) (Positions, error) {
	return f(ctx, d)
}

type oracleReply struct {
	positions Positions
	err       error
}

// LayoutWithOracle asks o for entity positions and falls back to
// LayoutEntities when the oracle fails, times out or returns nothing. Any
// non-empty map from the oracle is accepted as is. The boolean reports
// whether the oracle's answer was used.
func (e *Engine) LayoutWithOracle(ctx context.Context, o Oracle, d *diagram.Diagram, center geometry.Point) (Positions, bool) {
	defer e.observe(StrategyOracle, time.Now())

	fallback := e.LayoutEntities(d.Entities, d.Relationships, center)
	if o == nil {
		return fallback, false
	}

	if e.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.OracleTimeout)
		defer cancel()
	}

	snapshot := d.Clone()
	replies := make(chan oracleReply, 1)
	go func() {
		p, err := o.SuggestLayout(ctx, snapshot)
		replies <- oracleReply{positions: p, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil {
			e.logger.Warn("layout oracle failed, using sequential layout", zap.Error(r.err))
			break
		}
		if len(r.positions) == 0 {
			e.logger.Warn("layout oracle returned no positions, using sequential layout")
			break
		}
		e.logger.Debug("using oracle layout", zap.Int("entities", len(r.positions)))
		return r.positions, true
	case <-ctx.Done():
		e.logger.Warn("layout oracle did not answer in time, using sequential layout", zap.Error(ctx.Err()))
	}

	e.recorder.CountFallback(FallbackOracle)
	return fallback, false
}
