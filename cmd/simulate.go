package cmd

import (
	"fmt"
	"log"

	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/sim/timing"
	"github.com/sarchlab/countdown/tracing"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the countdown in virtual time and print every snapshot.",
		Long: `Simulate starts the countdown from the preset time on a ` +
			`virtual clock and prints each published snapshot as ` +
			`"time name cause mode HH:MM:SS". With --until, the countdown is ` +
			`stopped at that virtual time instead of running to 00:00:00.`,
		Args: cobra.NoArgs,
		RunE: simulate,
	}

	simulateCmd.Flags().Float64("until", 0,
		"Stop the countdown at this virtual time in seconds, 0 to run out")

	return simulateCmd
}

func simulate(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	until, _ := cmd.Flags().GetFloat64("until")
	if until < 0 {
		return fmt.Errorf("invalid --until %g", until)
	}

	engine := timing.NewSerialEngine()
	store := countdown.NewStore(engine, storeOptions(s)...)

	closeTrace, err := attachObservers(s, engine, store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	counter := tracing.NewCauseCountTracer()
	store.AcceptHook(tracing.NewLogTracer(log.New(out, "", 0)))
	store.AcceptHook(counter)

	store.Start()

	if until > 0 {
		err = engine.RunUntil(until)
		if err == nil {
			store.Stop()
		}
	} else {
		err = engine.Run()
	}

	store.Close()

	if traceErr := closeTrace(); err == nil {
		err = traceErr
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ticks: %d, finished: %t, remaining: %s\n",
		counter.Count(countdown.CauseTick),
		counter.Count(countdown.CauseFinish) > 0,
		formatRemaining(store.Snapshot()))

	return nil
}

func formatRemaining(s countdown.Snapshot) string {
	return fmt.Sprintf("%02d:%02d:%02d", s.Hours, s.Minutes, s.Seconds)
}
