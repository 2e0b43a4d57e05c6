package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/tictactoe-search/internal/app"
	"github.com/jaminalder/tictactoe-search/internal/domain"
	"github.com/jaminalder/tictactoe-search/internal/search"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

type handlers struct {
	svc *app.Service
	tpl *templates
}

func status(g *domain.Game) string {
	switch g.Outcome() {
	case domain.XWins:
		return "X wins"
	case domain.OWins:
		return "O wins"
	case domain.Draw:
		return "Draw"
	default:
		return g.Turn().String() + " to move"
	}
}

func (h *handlers) renderBoard(gs app.GameState, errMsg, hint string) []byte {
	return renderTemplate(h.tpl.board, "", boardData{
		ID:     gs.ID,
		Board:  gs.Game.Board(),
		Status: status(&gs.Game),
		Error:  errMsg,
		Hint:   hint,
	})
}

func writeHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, renderTemplate(h.tpl.index, "", nil))
}

// parseComputer maps the create form's side choice to the engine's side.
func parseComputer(v string) (domain.Cell, error) {
	switch strings.ToLower(v) {
	case "", "none":
		return domain.Empty, nil
	case "x":
		return domain.X, nil
	case "o":
		return domain.O, nil
	case "random":
		if frand.Intn(2) == 0 {
			return domain.X, nil
		}
		return domain.O, nil
	}
	return domain.Empty, fmt.Errorf("unknown side %q", v)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	computer, err := parseComputer(r.Form.Get("computer"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	algo := search.AlphaBeta
	if v := r.Form.Get("algorithm"); v != "" {
		if algo, err = search.ParseAlgorithm(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	gs, err := h.svc.CreateGame(app.Options{Computer: computer, Algorithm: algo})
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// ensure cookie and auto-claim seat
	pid := ensurePlayerCookie(w, r)
	_, _, _ = h.svc.Join(id, pid)

	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := struct {
		ID        string
		BoardHTML template.HTML
	}{ID: gs.ID, BoardHTML: template.HTML(h.renderBoard(*gs, "", ""))}
	writeHTML(w, renderTemplate(h.tpl.game, "", data))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_, gs, err := h.svc.Join(id, pid)
	if err != nil || gs == nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, h.renderBoard(*gs, "", ""))
}

func playError(err error) string {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.Is(err, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	default:
		return "Invalid move"
	}
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()
	ri, err1 := strconv.Atoi(r.Form.Get("r"))
	ci, err2 := strconv.Atoi(r.Form.Get("c"))
	if err1 != nil || err2 != nil {
		ri, ci = -1, -1
	}
	gs, err := h.svc.Play(id, pid, ri, ci)
	var errMsg string
	if err != nil {
		if gs == nil {
			if g, ok := h.svc.Get(id); ok {
				gs = g
			}
		}
		errMsg = playError(err)
		log.Debug().Err(err).Str("game", id).Int("r", ri).Int("c", ci).Msg("play-rejected")
	}
	if gs == nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, h.renderBoard(*gs, errMsg, ""))
}

func (h *handlers) hint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var msg, errMsg string
	res, err := h.svc.Hint(id)
	switch {
	case errors.Is(err, search.ErrEmptyMoveSet):
		errMsg = "No moves left"
	case err != nil:
		errMsg = "No hint available"
	default:
		msg = fmt.Sprintf("Best move: row %d, column %d (%s)", res.Move.Row()+1, res.Move.Col()+1, outlook(res.Score))
	}
	writeHTML(w, h.renderBoard(*gs, errMsg, msg))
}

func outlook(score int) string {
	switch {
	case score > 0:
		return "X can force a win"
	case score < 0:
		return "O can force a win"
	default:
		return "draw with best play"
	}
}

type searchDTO struct {
	Move  int    `json:"move"`
	Score int    `json:"score"`
	Nodes uint64 `json:"nodes"`
	Cuts  uint64 `json:"cuts"`
}

type stateDTO struct {
	ID         string           `json:"id"`
	Board      [9]string        `json:"board"`
	Turn       string           `json:"turn"`
	Winner     string           `json:"winner,omitempty"`
	Over       bool             `json:"over"`
	Outcome    string           `json:"outcome"`
	Moves      int              `json:"moves"`
	LegalMoves []int            `json:"legal_moves"`
	Computer   string           `json:"computer,omitempty"`
	Algorithm  search.Algorithm `json:"algorithm"`
	LastSearch *searchDTO       `json:"last_search,omitempty"`
}

func newStateDTO(gs *app.GameState) stateDTO {
	g := &gs.Game
	dto := stateDTO{
		ID:         gs.ID,
		Turn:       cellSymbol(g.Turn()),
		Winner:     cellSymbol(g.Winner()),
		Over:       g.Over(),
		Outcome:    g.Outcome().String(),
		Moves:      g.Moves(),
		LegalMoves: []int{},
		Computer:   cellSymbol(gs.Computer),
		Algorithm:  gs.Algorithm,
	}
	for i, c := range g.Board() {
		dto.Board[i] = cellSymbol(c)
	}
	for _, p := range g.LegalMoves() {
		dto.LegalMoves = append(dto.LegalMoves, int(p))
	}
	if ls := gs.LastSearch; ls != nil {
		dto.LastSearch = &searchDTO{Move: int(ls.Move), Score: ls.Score, Nodes: ls.Stats.Nodes, Cuts: ls.Stats.Cuts}
	}
	return dto
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newStateDTO(gs)); err != nil {
		log.Error().Err(err).Str("game", gs.ID).Msg("encode-state")
	}
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, _ := h.svc.Subscribe(ctx, id)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: board\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.ReplaceAll(string(b), "\n", ""))
			flusher.Flush()
		}
	}
}
