// Command tictactoe serves the web game or compares the search algorithms.
//
//	tictactoe serve   [-addr :8080] [-log-level info]
//	tictactoe compare [-games 10] [-workers 0] [-algorithm ...] [-profile cpu|mem]
//	tictactoe move    [-algorithm alphabeta] XX_O_____ [x|o]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jaminalder/tictactoe-search/internal/app"
	"github.com/jaminalder/tictactoe-search/internal/config"
	"github.com/jaminalder/tictactoe-search/internal/domain"
	"github.com/jaminalder/tictactoe-search/internal/harness"
	"github.com/jaminalder/tictactoe-search/internal/search"
	"github.com/jaminalder/tictactoe-search/internal/web"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "tictactoe:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: tictactoe serve|compare|move [flags]")
	}
	cmd, args := args[0], args[1:]
	cfg, err := config.Parse(cmd, args)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		return serve(ctx, cfg)
	case "compare":
		return compare(ctx, cfg, out)
	case "move":
		return bestMove(cfg, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(app.NewService()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting-down")
	return srv.Shutdown(shutdownCtx)
}

func compare(ctx context.Context, cfg config.Config, out io.Writer) error {
	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}
	reports, err := harness.Compare(ctx, cfg.Games, cfg.Workers, search.Algorithms...)
	if err != nil {
		return err
	}
	for _, r := range reports {
		fmt.Fprintf(out, "\nTesting %v algorithm:\n", r.Algorithm)
		fmt.Fprintf(out, "Final board state:\n%s", r.Last)
		fmt.Fprintf(out, "Results after %d games:\n", r.Games)
		fmt.Fprintf(out, "X wins: %d, O wins: %d, Draws: %d\n", r.XWins, r.OWins, r.Draws)
		fmt.Fprintf(out, "Nodes searched: %d, cutoffs: %d\n", r.Nodes, r.Cuts)
		fmt.Fprintf(out, "Average time per game: %v\n", r.Average())
	}
	return nil
}

// bestMove answers a single position given as nine cells, row-major, using
// X, O and '_' or '.' for empty. The side to move defaults to whoever has
// fewer marks.
func bestMove(cfg config.Config, out io.Writer) error {
	pos := cfg.Args
	if len(pos) == 0 {
		return errors.New("usage: tictactoe move [-algorithm a] CELLS [x|o]")
	}
	b, err := parseBoard(pos[0])
	if err != nil {
		return err
	}
	turn := defaultTurn(b)
	if len(pos) > 1 {
		switch strings.ToLower(pos[1]) {
		case "x":
			turn = domain.X
		case "o":
			turn = domain.O
		default:
			return fmt.Errorf("unknown side %q", pos[1])
		}
	}
	g, err := domain.Setup(b, turn)
	if err != nil {
		return err
	}
	res, err := search.BestMove(&g, cfg.Algorithm)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s%v plays row %d, column %d (score %d, %d nodes)\n",
		b, turn, res.Move.Row(), res.Move.Col(), res.Score, res.Stats.Nodes)
	return nil
}

func parseBoard(s string) (domain.Board, error) {
	var b domain.Board
	s = strings.ReplaceAll(s, "/", "")
	if len(s) != len(b) {
		return b, fmt.Errorf("board %q: want %d cells, got %d", s, len(b), len(s))
	}
	for i, ch := range strings.ToUpper(s) {
		switch ch {
		case 'X':
			b[i] = domain.X
		case 'O':
			b[i] = domain.O
		case '_', '.', '-':
		default:
			return b, fmt.Errorf("board %q: bad cell %q", s, ch)
		}
	}
	return b, nil
}

func defaultTurn(b domain.Board) domain.Cell {
	var nx, no int
	for _, c := range b {
		switch c {
		case domain.X:
			nx++
		case domain.O:
			no++
		}
	}
	if nx > no {
		return domain.O
	}
	return domain.X
}
