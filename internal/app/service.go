package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/tictactoe-search/internal/domain"
	"github.com/jaminalder/tictactoe-search/internal/search"
	"github.com/rs/zerolog/log"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
)

// ComputerID is the seat id held by the engine in games against the computer.
const ComputerID = "computer"

// Options configure a new game.
type Options struct {
	// Computer is the side played by the engine, or Empty for two humans.
	Computer  domain.Cell
	Algorithm search.Algorithm
}

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID        string
	Game      domain.Game
	X         string
	O         string
	Computer  domain.Cell
	Algorithm search.Algorithm
	// LastSearch is the engine's most recent reply, if any.
	LastSearch *search.Result
	Created    time.Time
	Updated    time.Time
}

// snapshot copies gs so callers never share the live game.
func (gs *GameState) snapshot() GameState {
	cp := *gs
	cp.Game = gs.Game.Clone()
	if gs.LastSearch != nil {
		r := *gs.LastSearch
		cp.LastSearch = &r
	}
	return cp
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers.
type Service struct {
	mu     sync.Mutex
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) []byte
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService() *Service { return NewServiceWithRenderer(func(gs GameState) []byte { return nil }) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte) *Service {
	if renderer == nil {
		renderer = func(gs GameState) []byte { return nil }
	}
	return &Service{
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new game. When the computer plays X it
// makes its first move before CreateGame returns.
func (s *Service) CreateGame(opts Options) (*GameState, error) {
	if _, err := search.New(opts.Algorithm); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	gs := &GameState{
		ID:        id,
		Game:      domain.New(),
		Computer:  opts.Computer,
		Algorithm: opts.Algorithm,
		Created:   now,
		Updated:   now,
	}
	switch opts.Computer {
	case domain.X:
		gs.X = ComputerID
	case domain.O:
		gs.O = ComputerID
	}
	if err := s.computerMoveLocked(gs); err != nil {
		return nil, err
	}
	s.games[id] = gs
	log.Info().
		Str("game", id).
		Str("computer", opts.Computer.String()).
		Str("algorithm", opts.Algorithm.String()).
		Msg("game-created")
	cp := gs.snapshot()
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := gs.snapshot()
	return &cp, true
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	if gs.X == "" || gs.X == playerID {
		gs.X = playerID
		side = domain.X
	} else if gs.O == "" || gs.O == playerID {
		gs.O = playerID
		side = domain.O
	}
	gs.Updated = time.Now()
	cp := gs.snapshot()
	return side, &cp, nil
}

// Play validates seat and turn, applies a move, lets the computer answer,
// updates timestamps, and broadcasts.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	// Validate player is seated
	var seat domain.Cell
	if playerID == ComputerID {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	} else if gs.X == playerID {
		seat = domain.X
	} else if gs.O == playerID {
		seat = domain.O
	} else {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	// Validate turn
	if seat != gs.Game.Turn() {
		s.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	// Apply move
	if err := gs.Game.Play(r, c); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.computerMoveLocked(gs); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gs.Updated = time.Now()
	if gs.Game.Over() {
		log.Info().Str("game", id).Str("outcome", gs.Game.Outcome().String()).Msg("game-over")
	}

	cp := s.publishLocked(id, gs)
	return &cp, nil
}

// Hint returns the engine's choice for the side to move, using the game's
// algorithm. The game itself is left as it was.
func (s *Service) Hint(id string) (search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return search.Result{Move: domain.NoPosition}, ErrNotFound
	}
	res, err := search.BestMove(&gs.Game, gs.Algorithm)
	if err != nil {
		return res, fmt.Errorf("hint for %s: %w", id, err)
	}
	return res, nil
}

// computerMoveLocked plays the engine's reply when it is the computer's turn.
// The search mutates gs.Game in place, which is safe because s.mu is held.
func (s *Service) computerMoveLocked(gs *GameState) error {
	if gs.Computer == domain.Empty || gs.Game.Over() || gs.Game.Turn() != gs.Computer {
		return nil
	}
	res, err := search.BestMove(&gs.Game, gs.Algorithm)
	if err != nil {
		return fmt.Errorf("computer move: %w", err)
	}
	if !gs.Game.ApplyMove(res.Move) {
		return fmt.Errorf("computer move: engine chose illegal cell %d", res.Move)
	}
	gs.LastSearch = &res
	return nil
}

// publishLocked snapshots gs, releases s.mu and fans the rendered state out.
// Slow subscribers are dropped.
func (s *Service) publishLocked(id string, gs *GameState) GameState {
	cp := gs.snapshot()
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	var toDrop []*subscriber
	for sub := range subs {
		select {
		case sub.ch <- payload:
		default:
			// drop slow subscriber
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
		log.Debug().Str("game", id).Int("dropped", len(toDrop)).Msg("slow-subscribers")
	}
	return cp
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		// create lazily to allow subscriptions before CreateGame in some flows
		s.games[id] = &GameState{ID: id, Game: domain.New(), Created: time.Now(), Updated: time.Now()}
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
