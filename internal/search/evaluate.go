package search

import "github.com/jaminalder/tictactoe-search/internal/domain"

// Outcome scores, from X's point of view.
const (
	WinScore  = 1
	DrawScore = 0
	LossScore = -1
)

// inf bounds every score and seeds alpha/beta at the root.
const inf = 1 << 30

// Evaluate scores a finished game: WinScore when X won, LossScore when O won
// and DrawScore for a draw. Scores only mean something at leaves, so calling
// it on a game in progress panics with ErrInvalidEvaluation.
func Evaluate(g *domain.Game) int {
	if !g.Over() {
		panic(ErrInvalidEvaluation)
	}
	switch g.Winner() {
	case domain.X:
		return WinScore
	case domain.O:
		return LossScore
	default:
		return DrawScore
	}
}
