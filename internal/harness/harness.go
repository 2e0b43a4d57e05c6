// Package harness drives complete games with the search engines and compares
// the algorithms over batches of self-play.
package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaminalder/tictactoe-search/internal/domain"
	"github.com/jaminalder/tictactoe-search/internal/search"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Game is the record of one finished self-play game.
type Game struct {
	Final    domain.Game
	Outcome  domain.Outcome
	Stats    search.Stats
	Duration time.Duration
}

// PlayOut asks the engine for a move until g is over, both sides playing a.
// g is mutated in place.
func PlayOut(g *domain.Game, a search.Algorithm) (search.Stats, error) {
	var total search.Stats
	for !g.Over() {
		res, err := search.BestMove(g, a)
		if err != nil {
			return total, fmt.Errorf("ply %d: %w", g.Moves()+1, err)
		}
		total.Add(res.Stats)
		if !g.ApplyMove(res.Move) {
			return total, fmt.Errorf("ply %d: engine chose occupied cell %d", g.Moves()+1, res.Move)
		}
	}
	return total, nil
}

// SelfPlay plays one game from the empty board.
func SelfPlay(a search.Algorithm) (Game, error) {
	start := time.Now()
	g := domain.New()
	stats, err := PlayOut(&g, a)
	if err != nil {
		return Game{}, err
	}
	return Game{Final: g, Outcome: g.Outcome(), Stats: stats, Duration: time.Since(start)}, nil
}

// Report tallies the games played with one algorithm.
type Report struct {
	Algorithm search.Algorithm
	Games     int
	XWins     int
	OWins     int
	Draws     int
	Nodes     uint64
	Cuts      uint64
	Total     time.Duration
	Last      domain.Board
}

// Average returns the mean wall time per game.
func (r Report) Average() time.Duration {
	if r.Games == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Games)
}

func (r *Report) record(g Game) {
	r.Games++
	switch g.Outcome {
	case domain.XWins:
		r.XWins++
	case domain.OWins:
		r.OWins++
	default:
		r.Draws++
	}
	r.Nodes += g.Stats.Nodes
	r.Cuts += g.Stats.Cuts
	r.Total += g.Duration
	r.Last = g.Final.Board()
}

// Compare plays games self-play games per algorithm on up to workers
// goroutines. Each goroutine owns the domain.Game it searches.
func Compare(ctx context.Context, games, workers int, algos ...search.Algorithm) ([]Report, error) {
	if games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", games)
	}
	if len(algos) == 0 {
		algos = search.Algorithms
	}
	reports := make([]Report, len(algos))
	for i, a := range algos {
		reports[i].Algorithm = a
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, a := range algos {
		for n := 0; n < games; n++ {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				g, err := SelfPlay(a)
				if err != nil {
					return fmt.Errorf("%v game %d: %w", a, n+1, err)
				}
				log.Debug().
					Str("algorithm", a.String()).
					Int("game", n+1).
					Str("outcome", g.Outcome.String()).
					Uint64("nodes", g.Stats.Nodes).
					Dur("elapsed", g.Duration).
					Msg("self-play")
				mu.Lock()
				reports[i].record(g)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for _, r := range reports {
		log.Info().
			Str("algorithm", r.Algorithm.String()).
			Int("games", r.Games).
			Int("x_wins", r.XWins).
			Int("o_wins", r.OWins).
			Int("draws", r.Draws).
			Dur("avg", r.Average()).
			Msg("compare-done")
	}
	return reports, nil
}
