package search

import "github.com/jaminalder/tictactoe-search/internal/domain"

// MinimaxScore returns the game-theoretic value of g, searching every line of
// play. maximizing says whether the side to move is X.
func MinimaxScore(g *domain.Game, maximizing bool) int {
	s := &searcher{game: g}
	return s.minimax(maximizing)
}

func (s *searcher) minimax(maximizing bool) int {
	s.stats.Nodes++
	if s.game.Over() {
		return s.leaf()
	}
	best := worst(maximizing)
	for _, p := range s.game.AvailableMoves() {
		s.game.ApplyMove(p)
		score := s.minimax(!maximizing)
		s.game.UndoMove()
		if better(maximizing, score, best) {
			best = score
		}
	}
	return best
}

type minimaxStrategy struct{}

func (minimaxStrategy) Algorithm() Algorithm { return Minimax }

func (minimaxStrategy) BestMove(g *domain.Game) (Result, error) {
	s := &searcher{game: g}
	return s.root(s.minimax)
}
