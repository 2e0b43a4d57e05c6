package search

import "github.com/jaminalder/tictactoe-search/internal/domain"

// AlphaBetaScore returns the same value as MinimaxScore for any window that
// contains it; with alpha=-inf and beta=+inf the result is exact.
func AlphaBetaScore(g *domain.Game, alpha, beta int, maximizing bool) int {
	s := &searcher{game: g}
	return s.alphaBeta(alpha, beta, maximizing)
}

// alphaBeta fails soft: when a cutoff happens the value returned is a bound
// on the true score, never used to pick a move over an exact one.
func (s *searcher) alphaBeta(alpha, beta int, maximizing bool) int {
	s.stats.Nodes++
	if s.game.Over() {
		return s.leaf()
	}
	best := worst(maximizing)
	for _, p := range s.game.AvailableMoves() {
		s.game.ApplyMove(p)
		score := s.alphaBeta(alpha, beta, !maximizing)
		s.game.UndoMove()

		// Strictly better only, so the first of equal moves is kept.
		if better(maximizing, score, best) {
			best = score
		}
		if maximizing {
			if score > alpha {
				alpha = score
			}
		} else if score < beta {
			beta = score
		}
		if beta <= alpha {
			s.stats.Cuts++
			break
		}
	}
	return best
}

type alphaBetaStrategy struct{}

func (alphaBetaStrategy) Algorithm() Algorithm { return AlphaBeta }

// BestMove tightens the root window with each child's score. A later child
// can then only replace the current best with an exact, strictly better
// score, which keeps the choice identical to plain minimax.
func (alphaBetaStrategy) BestMove(g *domain.Game) (Result, error) {
	s := &searcher{game: g}
	alpha, beta := -inf, inf
	return s.root(func(maximizing bool) int {
		score := s.alphaBeta(alpha, beta, maximizing)
		// maximizing is the child's flag: the root side is the opposite.
		if !maximizing && score > alpha {
			alpha = score
		}
		if maximizing && score < beta {
			beta = score
		}
		return score
	})
}
