package tracing

import (
	"sync"

	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/sim/hooking"
)

// CauseCountTracer counts publications by cause.
type CauseCountTracer struct {
	lock   sync.Mutex
	counts map[countdown.Cause]uint64
}

// NewCauseCountTracer creates a new CauseCountTracer
func NewCauseCountTracer() *CauseCountTracer {
	return &CauseCountTracer{
		counts: make(map[countdown.Cause]uint64),
	}
}

// Func counts a publication.
func (t *CauseCountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != countdown.HookPosPublish {
		return
	}

	pub, ok := ctx.Item.(countdown.Publication)
	if !ok {
		return
	}

	t.lock.Lock()
	t.counts[pub.Cause]++
	t.lock.Unlock()
}

// Count returns the number of publications with a cause.
func (t *CauseCountTracer) Count(cause countdown.Cause) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[cause]
}
