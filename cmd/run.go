package cmd

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/sarchlab/countdown/countdown"
	"github.com/sarchlab/countdown/monitoring"
	"github.com/sarchlab/countdown/sim/timing"
	"github.com/sarchlab/countdown/tui"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the countdown in the terminal.",
		Long: `Run shows the countdown in the terminal. Use the arrow keys ` +
			`to set the time, enter to start and stop, r to reset, and q to ` +
			`quit. With --monitor, the countdown is also served over HTTP.`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	runCmd.Flags().Bool("monitor", false, "Serve the countdown over HTTP")
	runCmd.Flags().Int("port", 0, "Port of the monitor, 0 for a random one")
	runCmd.Flags().Bool("open-browser", false,
		"Open the monitor page in the default browser")

	return runCmd
}

func run(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	engine := timing.NewRealTimeEngine()
	store := countdown.NewStore(engine, storeOptions(s)...)

	closeTrace, err := attachObservers(s, engine, store)
	if err != nil {
		return err
	}

	var monitor *monitoring.Monitor
	if s.Monitor {
		monitor = monitoring.NewMonitor().
			WithPortNumber(s.MonitorPort).
			WithBrowser(s.OpenBrowser)
		monitor.RegisterStore(store)
		monitor.RegisterEngine(engine)

		if _, err := monitor.StartServer(); err != nil {
			_ = closeTrace()
			return err
		}
	}

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			store.Close()
			engine.Close()

			if monitor != nil {
				_ = monitor.Close()
			}

			if err := closeTrace(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		})
	}
	atexit.Register(teardown)
	defer teardown()

	go func() {
		if err := engine.Run(); err != nil {
			log.Print(err)
		}
	}()

	return tui.Run(store)
}
