package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/jaminalder/tictactoe-search/internal/domain"
	"github.com/jaminalder/tictactoe-search/internal/search"
)

func TestSelfPlayEndsInDraw(t *testing.T) {
	for _, a := range search.Algorithms {
		g, err := SelfPlay(a)
		if err != nil {
			t.Fatalf("%v: self-play failed: %v", a, err)
		}
		if g.Outcome != domain.Draw {
			t.Fatalf("%v: expected draw, got %v\n%s", a, g.Outcome, g.Final.Board())
		}
		if g.Final.Moves() != 9 {
			t.Fatalf("%v: expected 9 plies, got %d", a, g.Final.Moves())
		}
		if g.Stats.Nodes == 0 {
			t.Fatalf("%v: expected node count", a)
		}
	}
}

func TestPlayOutFromPosition(t *testing.T) {
	g, err := domain.Setup(domain.Board{
		domain.X, domain.X, domain.Empty,
		domain.O, domain.Empty, domain.Empty,
		domain.Empty, domain.Empty, domain.Empty,
	}, domain.X)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := PlayOut(&g, search.AlphaBeta); err != nil {
		t.Fatalf("play out: %v", err)
	}
	if g.Winner() != domain.X || g.Moves() != 4 {
		t.Fatalf("expected X to win at once, winner=%v moves=%d", g.Winner(), g.Moves())
	}
}

func TestCompareTalliesEveryGame(t *testing.T) {
	reports, err := Compare(context.Background(), 3, 2)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if len(reports) != len(search.Algorithms) {
		t.Fatalf("expected %d reports, got %d", len(search.Algorithms), len(reports))
	}
	for i, r := range reports {
		if r.Algorithm != search.Algorithms[i] {
			t.Fatalf("report %d: expected %v, got %v", i, search.Algorithms[i], r.Algorithm)
		}
		if r.Games != 3 || r.Draws != 3 || r.XWins != 0 || r.OWins != 0 {
			t.Fatalf("%v: unexpected tally %+v", r.Algorithm, r)
		}
		if r.Average() <= 0 {
			t.Fatalf("%v: expected positive average duration", r.Algorithm)
		}
	}
	if reports[1].Nodes >= reports[0].Nodes {
		t.Fatalf("expected alphabeta to visit fewer nodes: %d vs %d", reports[1].Nodes, reports[0].Nodes)
	}
}

func TestCompareRejectsBadInput(t *testing.T) {
	if _, err := Compare(context.Background(), 0, 1); err == nil {
		t.Fatalf("expected error for zero games")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compare(ctx, 1, 1, search.Minimax); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
