package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/countdown/config"
	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/datarecording"
	"github.com/sarchlab/countdown/sim/id"
	"github.com/sarchlab/countdown/sim/timing"
	"github.com/sarchlab/countdown/tracing"
)

// attachObservers registers the event logger and the snapshot tracer that
// the settings ask for. The returned function closes the trace.
func attachObservers(
	s config.Settings,
	engine timing.Engine,
	store *countdown.Store,
) (func() error, error) {
	if s.LogEvents {
		engine.AcceptHook(timing.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	if s.TracePath == "" {
		return func() error { return nil }, nil
	}

	recorder, err := datarecording.New(s.TracePath)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.NewSnapshotTracer(
		recorder, id.NewUniqueIDGenerator().Generate())
	if err != nil {
		_ = recorder.Close()
		return nil, err
	}

	store.AcceptHook(tracer)

	fmt.Fprintf(os.Stderr, "Tracing snapshots into %s\n", recorder.Filename())

	closeTrace := func() error {
		store.RemoveHook(tracer)

		if err := tracer.Err(); err != nil {
			_ = recorder.Close()
			return fmt.Errorf("trace: %w", err)
		}

		return recorder.Close()
	}

	return closeTrace, nil
}
