package search

import (
	"errors"
	"testing"

	"github.com/jaminalder/tictactoe-search/internal/domain"
)

const (
	e = domain.Empty
	x = domain.X
	o = domain.O
)

func setup(t *testing.T, b domain.Board, turn domain.Cell) domain.Game {
	t.Helper()
	g, err := domain.Setup(b, turn)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return g
}

func mustBestMove(t *testing.T, g *domain.Game, a Algorithm) Result {
	t.Helper()
	res, err := BestMove(g, a)
	if err != nil {
		t.Fatalf("%v: BestMove failed: %v", a, err)
	}
	return res
}

func TestEvaluateTerminalBoards(t *testing.T) {
	cases := []struct {
		name  string
		board domain.Board
		want  int
	}{
		{name: "draw", board: domain.Board{x, o, x, o, x, o, o, x, o}, want: DrawScore},
		{name: "x row", board: domain.Board{x, x, x, o, o, e, e, e, e}, want: WinScore},
		{name: "o column", board: domain.Board{o, x, x, o, x, e, o, e, e}, want: LossScore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := setup(t, tc.board, x)
			if got := Evaluate(&g); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestEvaluatePanicsInProgress(t *testing.T) {
	g := domain.New()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidEvaluation) {
			t.Fatalf("expected ErrInvalidEvaluation panic, got %v", r)
		}
	}()
	Evaluate(&g)
}

func TestDrawnBoardHasNoMove(t *testing.T) {
	g := setup(t, domain.Board{x, o, x, o, x, o, o, x, o}, o)
	if !g.Over() || g.Winner() != e {
		t.Fatalf("expected drawn terminal board")
	}
	if len(g.AvailableMoves()) != 0 {
		t.Fatalf("expected no available moves")
	}
	for _, a := range Algorithms {
		res, err := BestMove(&g, a)
		if !errors.Is(err, ErrEmptyMoveSet) {
			t.Fatalf("%v: expected ErrEmptyMoveSet, got %v", a, err)
		}
		if res.Move != domain.NoPosition {
			t.Fatalf("%v: expected no move, got %v", a, res.Move)
		}
	}
}

func TestImmediateWin(t *testing.T) {
	for _, a := range Algorithms {
		g := setup(t, domain.Board{x, x, e, o, e, e, e, e, e}, x)
		res := mustBestMove(t, &g, a)
		if res.Move != domain.At(0, 2) || res.Score != WinScore {
			t.Fatalf("%v: expected move (0,2) score 1, got %v score %d", a, res.Move, res.Score)
		}
	}
}

func TestOCompletesOrKeepsForcedWin(t *testing.T) {
	for _, a := range Algorithms {
		g := setup(t, domain.Board{x, x, e, o, o, e, e, e, e}, o)
		res := mustBestMove(t, &g, a)
		if res.Score != LossScore {
			t.Fatalf("%v: expected O to be winning, score %d", a, res.Score)
		}
		// (1,2) wins at once; (0,2) blocks and leaves a double threat.
		if res.Move != domain.At(1, 2) && res.Move != domain.At(0, 2) {
			t.Fatalf("%v: unexpected move %v", a, res.Move)
		}
	}
}

func TestCenterOpeningGetsCornerReply(t *testing.T) {
	corners := map[domain.Position]bool{0: true, 2: true, 6: true, 8: true}
	for _, a := range Algorithms {
		g := domain.New()
		if !g.ApplyMove(domain.At(1, 1)) {
			t.Fatalf("center rejected")
		}
		res := mustBestMove(t, &g, a)
		if !corners[res.Move] {
			t.Fatalf("%v: expected a corner reply, got %v", a, res.Move)
		}
		if res.Score != DrawScore {
			t.Fatalf("%v: expected draw score, got %d", a, res.Score)
		}
		// every edge reply loses for O
		for _, edge := range []domain.Position{1, 3, 5, 7} {
			g.ApplyMove(edge)
			if got := MinimaxScore(&g, true); got != WinScore {
				t.Fatalf("expected edge %v to lose for O, score %d", edge, got)
			}
			g.UndoMove()
		}
	}
}

func TestEmptyBoardIsDrawAndPruningHelps(t *testing.T) {
	g := domain.New()
	mm := mustBestMove(t, &g, Minimax)
	ab := mustBestMove(t, &g, AlphaBeta)
	if mm.Score != DrawScore || ab.Score != DrawScore {
		t.Fatalf("expected draw from empty board, minimax=%d alphabeta=%d", mm.Score, ab.Score)
	}
	if mm.Move != ab.Move {
		t.Fatalf("algorithms disagree: minimax=%v alphabeta=%v", mm.Move, ab.Move)
	}
	if mm.Stats.Nodes != 549946 {
		t.Fatalf("expected minimax to visit the whole tree, got %d nodes", mm.Stats.Nodes)
	}
	if mm.Stats.Cuts != 0 {
		t.Fatalf("minimax should never cut, got %d", mm.Stats.Cuts)
	}
	if ab.Stats.Nodes >= mm.Stats.Nodes || ab.Stats.Cuts == 0 {
		t.Fatalf("expected pruning: alphabeta %d nodes (%d cuts) vs minimax %d", ab.Stats.Nodes, ab.Stats.Cuts, mm.Stats.Nodes)
	}
	if g.Moves() != 0 || g.Over() || g.Turn() != x {
		t.Fatalf("search left the game modified")
	}
}

func TestOptimalSelfPlayDraws(t *testing.T) {
	for _, a := range Algorithms {
		g := domain.New()
		for !g.Over() {
			res := mustBestMove(t, &g, a)
			if !g.ApplyMove(res.Move) {
				t.Fatalf("%v: engine chose illegal move %v", a, res.Move)
			}
		}
		if g.Winner() != e {
			t.Fatalf("%v: expected draw, %v won\n%s", a, g.Winner(), g.Board())
		}
	}
}

func TestAlgorithmsAgreeOnEveryReachablePosition(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive walk")
	}
	seen := make(map[domain.Board]bool)
	checked := 0
	var walk func(g *domain.Game)
	walk = func(g *domain.Game) {
		if seen[g.Board()] {
			return
		}
		seen[g.Board()] = true
		if g.Over() {
			return
		}
		before := g.Board()
		mm := mustBestMove(t, g, Minimax)
		ab := mustBestMove(t, g, AlphaBeta)
		if mm.Move != ab.Move || mm.Score != ab.Score {
			t.Fatalf("disagreement on\n%sminimax %v/%d alphabeta %v/%d", g.Board(), mm.Move, mm.Score, ab.Move, ab.Score)
		}
		maximizing := g.Turn() == x
		if s := AlphaBetaScore(g, -inf, inf, maximizing); s != MinimaxScore(g, maximizing) {
			t.Fatalf("score functions disagree on\n%s", g.Board())
		}
		if g.Board() != before {
			t.Fatalf("search left the board modified")
		}
		checked++
		for _, p := range g.AvailableMoves() {
			g.ApplyMove(p)
			walk(g)
			g.UndoMove()
		}
	}
	g := domain.New()
	walk(&g)
	// 5478 reachable positions, 958 of them terminal
	if len(seen) != 5478 || checked != 4520 {
		t.Fatalf("expected 5478 positions (4520 in progress), got %d (%d)", len(seen), checked)
	}
}

func TestParseAlgorithm(t *testing.T) {
	cases := []struct {
		in   string
		want Algorithm
		err  bool
	}{
		{in: "minimax", want: Minimax},
		{in: "AlphaBeta", want: AlphaBeta},
		{in: " alpha-beta ", want: AlphaBeta},
		{in: "mcts", err: true},
	}
	for _, tc := range cases {
		got, err := ParseAlgorithm(tc.in)
		if tc.err {
			if !errors.Is(err, ErrUnknownAlgorithm) {
				t.Fatalf("%q: expected ErrUnknownAlgorithm, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %v, got %v (%v)", tc.in, tc.want, got, err)
		}
	}
	var a Algorithm
	if err := a.UnmarshalText([]byte("alphabeta")); err != nil || a != AlphaBeta {
		t.Fatalf("UnmarshalText: %v %v", a, err)
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	g := domain.New()
	if _, err := BestMove(&g, Algorithm(7)); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
	for _, a := range Algorithms {
		st, err := New(a)
		if err != nil || st.Algorithm() != a {
			t.Fatalf("New(%v) = %v, %v", a, st, err)
		}
	}
}
