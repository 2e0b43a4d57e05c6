// Package config holds runtime settings for the tictactoe binary.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jaminalder/tictactoe-search/internal/search"
	"github.com/rs/zerolog"
)

// Config is filled from defaults, then TTT_* environment variables, then flags.
type Config struct {
	Addr      string
	LogLevel  string
	Algorithm search.Algorithm
	Games     int
	Workers   int
	// Profile is "", "cpu" or "mem".
	Profile string
	// Args holds the positional arguments left after flags.
	Args []string
}

var (
	ErrBadGames   = errors.New("games must be positive")
	ErrBadProfile = errors.New("profile must be cpu or mem")
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:      ":8080",
		LogLevel:  "info",
		Algorithm: search.AlphaBeta,
		Games:     10,
	}
}

// FromEnv overlays environment variables on c.
func (c Config) FromEnv(getenv func(string) string) (Config, error) {
	if v := getenv("TTT_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("TTT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("TTT_ALGORITHM"); v != "" {
		a, err := search.ParseAlgorithm(v)
		if err != nil {
			return c, fmt.Errorf("TTT_ALGORITHM: %w", err)
		}
		c.Algorithm = a
	}
	return c, nil
}

// Parse builds the config for a subcommand from the process environment and
// args.
func Parse(name string, args []string) (Config, error) {
	c, err := Default().FromEnv(os.Getenv)
	if err != nil {
		return c, err
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.TextVar(&c.Algorithm, "algorithm", c.Algorithm, "search algorithm (minimax, alphabeta)")
	fs.IntVar(&c.Games, "games", c.Games, "self-play games per algorithm")
	fs.IntVar(&c.Workers, "workers", c.Workers, "concurrent games, 0 for unlimited")
	fs.StringVar(&c.Profile, "profile", c.Profile, "write a cpu or mem profile")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	c.Args = fs.Args()
	return c, c.Validate()
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if _, err := search.New(c.Algorithm); err != nil {
		return err
	}
	if c.Games <= 0 {
		return ErrBadGames
	}
	if c.Profile != "" && c.Profile != "cpu" && c.Profile != "mem" {
		return ErrBadProfile
	}
	return nil
}

// Level returns the parsed log level; call after Validate.
func (c Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
