// Package search picks optimal tic-tac-toe moves by exhaustive game-tree
// search. Both strategies walk a single domain.Game with ApplyMove/UndoMove
// and always reach a terminal position before scoring.
package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jaminalder/tictactoe-search/internal/domain"
	"github.com/rs/zerolog/log"
)

// Errors returned by the search layer.
var (
	ErrEmptyMoveSet      = errors.New("no moves available")
	ErrUnknownAlgorithm  = errors.New("unknown algorithm")
	ErrInvalidEvaluation = errors.New("evaluation of a game in progress")
)

// Algorithm selects a search strategy.
type Algorithm uint8

const (
	Minimax Algorithm = iota
	AlphaBeta
)

// Algorithms lists every strategy, in a stable order.
var Algorithms = []Algorithm{Minimax, AlphaBeta}

func (a Algorithm) String() string {
	switch a {
	case Minimax:
		return "minimax"
	case AlphaBeta:
		return "alphabeta"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm accepts "minimax" and "alphabeta" (or "alpha-beta"), case
// insensitive.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimax":
		return Minimax, nil
	case "alphabeta", "alpha-beta":
		return AlphaBeta, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

func (a Algorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Stats counts the work done by one search.
type Stats struct {
	Nodes  uint64 // positions visited, root included
	Leaves uint64 // terminal positions scored
	Cuts   uint64 // nodes whose remaining siblings were pruned
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Nodes += o.Nodes
	s.Leaves += o.Leaves
	s.Cuts += o.Cuts
}

// Result is the outcome of a root search.
type Result struct {
	Move  domain.Position
	Score int
	Stats Stats
}

// Strategy chooses a move for the side to move. The game is mutated during
// the search and restored before BestMove returns.
type Strategy interface {
	Algorithm() Algorithm
	BestMove(g *domain.Game) (Result, error)
}

// New returns the strategy for a.
func New(a Algorithm) (Strategy, error) {
	switch a {
	case Minimax:
		return minimaxStrategy{}, nil
	case AlphaBeta:
		return alphaBetaStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, a)
}

// BestMove searches g with algorithm a. It fails with ErrEmptyMoveSet on a
// finished game.
func BestMove(g *domain.Game, a Algorithm) (Result, error) {
	st, err := New(a)
	if err != nil {
		return Result{Move: domain.NoPosition}, err
	}
	res, err := st.BestMove(g)
	if err != nil {
		return res, err
	}
	log.Debug().
		Str("algorithm", a.String()).
		Str("side", g.Turn().String()).
		Int("move", int(res.Move)).
		Int("score", res.Score).
		Uint64("nodes", res.Stats.Nodes).
		Uint64("cuts", res.Stats.Cuts).
		Msg("best-move")
	return res, nil
}

// searcher carries the game being explored and the counters for one search.
type searcher struct {
	game  *domain.Game
	stats Stats
}

func (s *searcher) leaf() int {
	s.stats.Leaves++
	return Evaluate(s.game)
}

// better reports whether score improves on best for the given side. Ties keep
// the earlier move.
func better(maximizing bool, score, best int) bool {
	if maximizing {
		return score > best
	}
	return score < best
}

func worst(maximizing bool) int {
	if maximizing {
		return -inf
	}
	return inf
}

// root runs the common root loop: X maximizes, O minimizes, first best move in
// row-major order wins. child scores the position after a move has been
// applied.
func (s *searcher) root(child func(maximizing bool) int) (Result, error) {
	g := s.game
	if g.Over() {
		return Result{Move: domain.NoPosition}, ErrEmptyMoveSet
	}
	s.stats.Nodes++
	maximizing := g.Turn() == domain.X
	res := Result{Move: domain.NoPosition, Score: worst(maximizing)}
	for _, p := range g.AvailableMoves() {
		g.ApplyMove(p)
		score := child(!maximizing)
		g.UndoMove()
		if better(maximizing, score, res.Score) {
			res.Move, res.Score = p, score
		}
	}
	if res.Move == domain.NoPosition {
		return res, ErrEmptyMoveSet
	}
	res.Stats = s.stats
	return res, nil
}
