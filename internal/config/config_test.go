package config

import (
	"errors"
	"testing"

	"github.com/jaminalder/tictactoe-search/internal/search"
	"github.com/rs/zerolog"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"TTT_ADDR":      "127.0.0.1:9000",
		"TTT_LOG_LEVEL": "debug",
		"TTT_ALGORITHM": "minimax",
	}
	c, err := Default().FromEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Addr != "127.0.0.1:9000" || c.Level() != zerolog.DebugLevel || c.Algorithm != search.Minimax {
		t.Fatalf("unexpected config: %+v", c)
	}

	env["TTT_ALGORITHM"] = "negamax"
	if _, err := Default().FromEnv(func(k string) string { return env[k] }); !errors.Is(err, search.ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	t.Setenv("TTT_ALGORITHM", "minimax")
	c, err := Parse("compare", []string{"-algorithm", "alphabeta", "-games", "3", "-workers", "2", "-profile", "cpu"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Algorithm != search.AlphaBeta || c.Games != 3 || c.Workers != 2 || c.Profile != "cpu" {
		t.Fatalf("flags should override env: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
		err  error
	}{
		{name: "zero games", mod: func(c *Config) { c.Games = 0 }, err: ErrBadGames},
		{name: "bad profile", mod: func(c *Config) { c.Profile = "block" }, err: ErrBadProfile},
		{name: "bad algorithm", mod: func(c *Config) { c.Algorithm = search.Algorithm(5) }, err: search.ErrUnknownAlgorithm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mod(&c)
			if err := c.Validate(); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
	c := Default()
	c.LogLevel = "loud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected log level error")
	}
}
