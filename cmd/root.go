// Package cmd provides the command-line interface of the countdown.
package cmd

import (
	"github.com/sarchlab/countdown/config"
	"github.com/sarchlab/countdown/countdown"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "countdown",
		Short: "A countdown timer of up to 99:59:59.",
		Long: `Countdown counts down from a preset time once per second and ` +
			`stops at 00:00:00. It runs interactively in the terminal, can be ` +
			`driven from a browser, and can be simulated in virtual time.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("env-file", "", "Read settings from this file instead of .env")
	flags.Int("hours", 0, "Preset hours (0-99)")
	flags.Int("minutes", 0, "Preset minutes (0-59)")
	flags.Int("seconds", 0, "Preset seconds (0-59)")
	flags.String("adjust-policy", "trust",
		"What to do with adjustments while running: trust or reject")
	flags.String("trace", "",
		"Record every snapshot into this SQLite file (without extension)")
	flags.Bool("log-events", false, "Print every engine event to stderr")

	root.AddCommand(newRunCmd(), newSimulateCmd(), newVersionCmd())

	return root
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It returns the exit code of the program.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		return 1
	}

	return 0
}

// loadSettings reads the environment and lets the flags that were set on the
// command line override it.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	flags := cmd.Flags()

	var files []string
	if envFile, _ := flags.GetString("env-file"); envFile != "" {
		files = append(files, envFile)
	}

	s, err := config.Load(files...)
	if err != nil {
		return s, err
	}

	ints := map[string]*int{
		"hours":   &s.Hours,
		"minutes": &s.Minutes,
		"seconds": &s.Seconds,
		"port":    &s.MonitorPort,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	bools := map[string]*bool{
		"monitor":      &s.Monitor,
		"open-browser": &s.OpenBrowser,
		"log-events":   &s.LogEvents,
	}
	for name, dst := range bools {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	if flags.Changed("trace") {
		s.TracePath, _ = flags.GetString("trace")
	}

	if flags.Changed("adjust-policy") {
		policy, _ := flags.GetString("adjust-policy")

		s.AdjustPolicy, err = countdown.ParseAdjustPolicy(policy)
		if err != nil {
			return s, err
		}
	}

	return s, s.Validate()
}

func storeOptions(s config.Settings) []countdown.Option {
	return []countdown.Option{
		countdown.WithInitial(s.Hours, s.Minutes, s.Seconds),
		countdown.WithAdjustPolicy(s.AdjustPolicy),
	}
}
