// Package tracing provides hooks that observe the publications of a
// countdown store.
package tracing

import (
	"sync"
	"time"

	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/datarecording"
	"github.com/sarchlab/countdown/sim/hooking"
)

// SnapshotTableName is the table that SnapshotTracer writes into.
const SnapshotTableName = "countdown_snapshot"

type snapshotEntry struct {
	Session  string
	Seq      int
	SimTime  float64
	WallTime string
	Cause    string
	Mode     string
	Hours    int
	Minutes  int
	Seconds  int
}

// SnapshotTracer writes every publication of a store into a DataRecorder.
// The table is an append-only log of one session; it is never read back to
// restore a countdown.
type SnapshotTracer struct {
	lock    sync.Mutex
	backend datarecording.DataRecorder
	session string
	seq     int
	now     func() time.Time
	err     error
}

// NewSnapshotTracer creates the snapshot table and returns a tracer that
// fills it.
func NewSnapshotTracer(
	backend datarecording.DataRecorder,
	session string,
) (*SnapshotTracer, error) {
	err := backend.CreateTable(SnapshotTableName, snapshotEntry{})
	if err != nil {
		return nil, err
	}

	t := &SnapshotTracer{
		backend: backend,
		session: session,
		now:     time.Now,
	}

	return t, nil
}

// Func records a publication.
func (t *SnapshotTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != countdown.HookPosPublish {
		return
	}

	pub, ok := ctx.Item.(countdown.Publication)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.seq++
	entry := snapshotEntry{
		Session:  t.session,
		Seq:      t.seq,
		SimTime:  pub.Time,
		WallTime: t.now().UTC().Format(time.RFC3339Nano),
		Cause:    string(pub.Cause),
		Mode:     pub.Snapshot.Mode.String(),
		Hours:    pub.Snapshot.Hours,
		Minutes:  pub.Snapshot.Minutes,
		Seconds:  pub.Snapshot.Seconds,
	}

	err := t.backend.InsertData(SnapshotTableName, entry)
	if err != nil && t.err == nil {
		t.err = err
	}
}

// Count returns the number of publications recorded.
func (t *SnapshotTracer) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.seq
}

// Err returns the first error the backend reported, if any.
func (t *SnapshotTracer) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.err
}
