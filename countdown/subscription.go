package countdown

import (
	"sync"

	"github.com/sarchlab/countdown/sim/hooking"
)

// A Subscription delivers the latest snapshot of a store over a channel.
//
// The channel holds at most one snapshot. A newer snapshot replaces one the
// consumer has not received yet, so a slow consumer never blocks the store
// and always catches up to the current state. The channel is closed after
// the store is closed or the subscription is cancelled.
type Subscription struct {
	store *Store

	lock   sync.Mutex
	ch     chan Snapshot
	closed bool
}

// Subscribe creates a Subscription whose channel already holds the current
// snapshot.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		store: s,
		ch:    make(chan Snapshot, 1),
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	sub.offer(s.state)

	if s.closed {
		sub.shut()
		return sub
	}

	s.AcceptHook(sub)

	return sub
}

// C returns the channel of snapshots.
func (sub *Subscription) C() <-chan Snapshot {
	return sub.ch
}

// Func implements hooking.Hook.
func (sub *Subscription) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosPublish {
		return
	}

	pub, ok := ctx.Item.(Publication)
	if !ok {
		return
	}

	sub.offer(pub.Snapshot)

	if pub.Cause == CauseClose {
		sub.store.RemoveHook(sub)
		sub.shut()
	}
}

// Unsubscribe detaches the subscription from the store and closes the
// channel.
func (sub *Subscription) Unsubscribe() {
	sub.store.RemoveHook(sub)
	sub.shut()
}

func (sub *Subscription) offer(snapshot Snapshot) {
	sub.lock.Lock()
	defer sub.lock.Unlock()

	if sub.closed {
		return
	}

	select {
	case <-sub.ch:
	default:
	}

	sub.ch <- snapshot
}

func (sub *Subscription) shut() {
	sub.lock.Lock()
	defer sub.lock.Unlock()

	if sub.closed {
		return
	}

	sub.closed = true
	close(sub.ch)
}
