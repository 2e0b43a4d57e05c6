package domain

import (
	"errors"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return " "
	}
}

// Opponent returns the other side. Empty has no opponent and maps to itself.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Position is a linear cell index in [0,9), row-major.
type Position int

// NoPosition is returned when there is no move to report.
const NoPosition Position = -1

// At converts a row/column pair into a Position.
func At(r, c int) Position { return Position(r*3 + c) }

func (p Position) Row() int    { return int(p) / 3 }
func (p Position) Col() int    { return int(p) % 3 }
func (p Position) Valid() bool { return p >= 0 && p < 9 }

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// String renders the board one row per line, e.g. "|X|O| |".
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		sb.WriteByte('|')
		for c := 0; c < 3; c++ {
			sb.WriteString(b[r*3+c].String())
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Outcome summarises where a game stands.
type Outcome uint8

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "x-wins"
	case OWins:
		return "o-wins"
	case Draw:
		return "draw"
	default:
		return "in-progress"
	}
}

// move is one history entry: where a mark went and who placed it.
type move struct {
	pos Position
	by  Cell
}

// Game holds the state of a Tic-Tac-Toe match.
//
// Search explores by ApplyMove, recursion and UndoMove on a single Game, so
// a Game is owned by one goroutine at a time. Use Clone to hand a copy to
// another owner.
type Game struct {
	board   Board
	turn    Cell
	winner  Cell
	over    bool
	history []move
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrOccupied     = errors.New("cell occupied")
	ErrGameOver     = errors.New("game over")
	ErrInvalidTurn  = errors.New("side to move must be X or O")
	ErrInvalidBoard = errors.New("both sides have three in a row")
)

var lines = [8][3]Position{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// linesThrough lists, per cell, the indexes into lines that pass through it:
// its row, its column and whichever diagonals contain it.
var linesThrough [9][]int

func init() {
	for i, ln := range lines {
		for _, p := range ln {
			linesThrough[p] = append(linesThrough[p], i)
		}
	}
}

// New returns a new game with X to move.
func New() Game {
	return Game{turn: X, history: make([]move, 0, len(Board{}))}
}

// Setup loads an arbitrary position with the given side to move. Marks are
// recorded in history in row-major order so that the history length always
// matches the number of occupied cells.
func Setup(b Board, turn Cell) (Game, error) {
	if turn != X && turn != O {
		return Game{}, ErrInvalidTurn
	}
	g := New()
	g.board = b
	g.turn = turn
	for i, c := range b {
		if c != Empty {
			g.history = append(g.history, move{pos: Position(i), by: c})
		}
	}
	xWon, oWon := hasWin(b, X), hasWin(b, O)
	switch {
	case xWon && oWon:
		return Game{}, ErrInvalidBoard
	case xWon:
		g.winner, g.over = X, true
	case oWon:
		g.winner, g.over = O, true
	case g.IsFull():
		g.over = true
	}
	return g, nil
}

// Board returns a copy of the cells.
func (g *Game) Board() Board { return g.board }

// Turn returns the side to move. After the game ends it is left at the side
// that made the final move.
func (g *Game) Turn() Cell { return g.turn }

// Winner returns X or O, or Empty for a draw or an unfinished game.
func (g *Game) Winner() Cell { return g.winner }

// Over reports whether the game reached a terminal state.
func (g *Game) Over() bool { return g.over }

// Moves returns the number of marks placed so far.
func (g *Game) Moves() int { return len(g.history) }

// LastMove returns the most recent move, or NoPosition on an empty board.
func (g *Game) LastMove() Position {
	if len(g.history) == 0 {
		return NoPosition
	}
	return g.history[len(g.history)-1].pos
}

// Outcome reports the result of the game so far.
func (g *Game) Outcome() Outcome {
	switch {
	case !g.over:
		return InProgress
	case g.winner == X:
		return XWins
	case g.winner == O:
		return OWins
	default:
		return Draw
	}
}

// IsFull reports whether every cell is occupied.
func (g *Game) IsFull() bool { return len(g.history) == len(g.board) }

// Clone returns an independent copy of the game, history included.
func (g *Game) Clone() Game {
	cp := *g
	cp.history = make([]move, len(g.history), len(g.board))
	copy(cp.history, g.history)
	return cp
}

// AvailableMoves returns every empty cell in row-major order. The order is
// what breaks ties during search.
func (g *Game) AvailableMoves() []Position {
	out := make([]Position, 0, len(g.board)-len(g.history))
	for i, c := range g.board {
		if c == Empty {
			out = append(out, Position(i))
		}
	}
	return out
}

// LegalMoves is AvailableMoves for a game in progress and empty once the game
// is over.
func (g *Game) LegalMoves() []Position {
	if g.over {
		return nil
	}
	return g.AvailableMoves()
}

// ApplyMove places the current side's mark at p. It returns false, leaving
// the game untouched, when the game is over, p is off the board or the cell
// is occupied.
func (g *Game) ApplyMove(p Position) bool {
	if g.over || !p.Valid() || g.board[p] != Empty {
		return false
	}
	g.board[p] = g.turn
	g.history = append(g.history, move{pos: p, by: g.turn})

	if g.completesLine(p) {
		g.winner = g.turn
		g.over = true
		return true
	}
	if g.IsFull() {
		g.over = true
		return true
	}
	g.turn = g.turn.Opponent()
	return true
}

// UndoMove takes back the most recent move. It is only valid as the exact
// inverse of the ApplyMove that preceded it: a position is terminal only
// because of its last move, so clearing the terminal flags is enough.
func (g *Game) UndoMove() {
	n := len(g.history)
	if n == 0 {
		return
	}
	last := g.history[n-1]
	g.history = g.history[:n-1]
	g.board[last.pos] = Empty
	g.turn = last.by
	g.winner = Empty
	g.over = false
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	if g.over {
		return ErrGameOver
	}
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return ErrOutOfBounds
	}
	if g.board[At(r, c)] != Empty {
		return ErrOccupied
	}
	g.ApplyMove(At(r, c))
	return nil
}

// completesLine checks only the lines through p, for the mark now on p.
func (g *Game) completesLine(p Position) bool {
	side := g.board[p]
	for _, i := range linesThrough[p] {
		ln := lines[i]
		if g.board[ln[0]] == side && g.board[ln[1]] == side && g.board[ln[2]] == side {
			return true
		}
	}
	return false
}

func hasWin(b Board, side Cell) bool {
	for _, ln := range lines {
		if b[ln[0]] == side && b[ln[1]] == side && b[ln[2]] == side {
			return true
		}
	}
	return false
}
