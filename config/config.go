// Package config collects the settings of the countdown command from the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/countdown/countdown"
)

// Names of the environment variables read by FromEnv.
const (
	EnvHours        = "COUNTDOWN_HOURS"
	EnvMinutes      = "COUNTDOWN_MINUTES"
	EnvSeconds      = "COUNTDOWN_SECONDS"
	EnvAdjustPolicy = "COUNTDOWN_ADJUST_POLICY"
	EnvMonitor      = "COUNTDOWN_MONITOR"
	EnvMonitorPort  = "COUNTDOWN_MONITOR_PORT"
	EnvOpenBrowser  = "COUNTDOWN_OPEN_BROWSER"
	EnvTracePath    = "COUNTDOWN_TRACE"
	EnvLogEvents    = "COUNTDOWN_LOG_EVENTS"
)

// Settings configures a countdown session.
type Settings struct {
	// Hours, Minutes, and Seconds preset the remaining time.
	Hours   int
	Minutes int
	Seconds int

	AdjustPolicy countdown.AdjustPolicy

	// Monitor starts the HTTP monitor on MonitorPort. Port 0 picks a random
	// port.
	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	// TracePath is the SQLite file, without extension, that records every
	// snapshot. Empty disables tracing.
	TracePath string

	// LogEvents prints every engine event to stderr.
	LogEvents bool
}

// Validate checks that the preset time is within the countdown's domain.
func (s Settings) Validate() error {
	checks := []struct {
		name  string
		value int
		max   int
	}{
		{"hours", s.Hours, countdown.MaxHours},
		{"minutes", s.Minutes, countdown.MaxMinutes},
		{"seconds", s.Seconds, countdown.MaxSeconds},
	}

	for _, c := range checks {
		if c.value < 0 || c.value > c.max {
			return fmt.Errorf("%s must be within [0, %d], got %d",
				c.name, c.max, c.value)
		}
	}

	if s.MonitorPort < 0 || s.MonitorPort > 65535 {
		return fmt.Errorf("invalid monitor port %d", s.MonitorPort)
	}

	return nil
}

// Load reads the given env files, or ".env" if none is given, into the
// environment and then returns FromEnv. Missing files are ignored. Variables
// already set in the environment take precedence over the files.
func Load(files ...string) (Settings, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return FromEnv()
}

// FromEnv builds Settings from the COUNTDOWN_* environment variables. Unset
// variables keep their zero values.
func FromEnv() (Settings, error) {
	var (
		s   Settings
		err error
	)

	ints := []struct {
		env string
		dst *int
	}{
		{EnvHours, &s.Hours},
		{EnvMinutes, &s.Minutes},
		{EnvSeconds, &s.Seconds},
		{EnvMonitorPort, &s.MonitorPort},
	}
	for _, i := range ints {
		if *i.dst, err = lookupInt(i.env); err != nil {
			return Settings{}, err
		}
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{EnvMonitor, &s.Monitor},
		{EnvOpenBrowser, &s.OpenBrowser},
		{EnvLogEvents, &s.LogEvents},
	}
	for _, b := range bools {
		if *b.dst, err = lookupBool(b.env); err != nil {
			return Settings{}, err
		}
	}

	s.AdjustPolicy, err = countdown.ParseAdjustPolicy(
		os.Getenv(EnvAdjustPolicy))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", EnvAdjustPolicy, err)
	}

	s.TracePath = strings.TrimSpace(os.Getenv(EnvTracePath))

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func lookupInt(env string) (int, error) {
	value, ok := os.LookupEnv(env)
	if !ok || strings.TrimSpace(value) == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}

	return n, nil
}

func lookupBool(env string) (bool, error) {
	value, ok := os.LookupEnv(env)
	if !ok || strings.TrimSpace(value) == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s: %w", env, err)
	}

	return b, nil
}
