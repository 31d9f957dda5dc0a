package tracing

import (
	"log"

	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/sim/hooking"
)

// LogTracer prints each publication of a store.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer returns a LogTracer writing into logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints a publication.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != countdown.HookPosPublish {
		return
	}

	pub, ok := ctx.Item.(countdown.Publication)
	if !ok {
		return
	}

	name := "countdown"
	if n, ok := ctx.Domain.(interface{ Name() string }); ok {
		name = n.Name()
	}

	s := pub.Snapshot
	t.logger.Printf("%.3f %s %-6s %-7s %02d:%02d:%02d",
		pub.Time, name, pub.Cause, s.Mode, s.Hours, s.Minutes, s.Seconds)
}
