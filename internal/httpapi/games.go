package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req chessdto.CreateGameRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	g, err := s.games.CreateGame(r.Context(), pvpchess.NewGameParams{
		CreatorID:    req.CreatorID,
		CreatorName:  req.CreatorName,
		OpponentID:   req.OpponentID,
		OpponentName: req.OpponentName,
		Color:        req.Color,
	})
	if err != nil {
		s.writeError(w, r, err, map[string]any{"Input": req.OpponentID})
		return
	}
	writeJSON(w, http.StatusCreated, chesspresenter.ToDTOGameState(g, s.now()))
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.games.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOGameState(g, s.now()))
}

func (s *Server) gameLegalMoves(w http.ResponseWriter, r *http.Request) {
	square := strings.TrimSpace(r.URL.Query().Get("square"))
	moves, err := s.games.LegalMoves(r.Context(), mux.Vars(r)["id"], square)
	if err != nil {
		s.writeError(w, r, err, map[string]any{"Input": square})
		return
	}
	writeJSON(w, http.StatusOK, chessdto.LegalMovesResponse{Square: square, Moves: nonNil(moves)})
}

func (s *Server) submitMove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req chessdto.MoveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if req.GameID != "" && req.GameID != id {
		s.writeError(w, r, pvpchess.ErrInvalidArgs, map[string]any{"Input": req.GameID})
		return
	}
	g, err := s.games.SubmitMove(r.Context(), pvpchess.MoveRequest{
		GameID:    id,
		PlayerID:  req.PlayerID,
		From:      req.From,
		To:        req.To,
		Promotion: req.Promotion,
		Text:      req.Move,
	})
	if err != nil {
		s.writeError(w, r, err, map[string]any{"Move": moveLabel(req), "Input": moveLabel(req)})
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOGameState(g, s.now()))
}

func (s *Server) resignGame(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ResignRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	g, err := s.games.Resign(r.Context(), mux.Vars(r)["id"], req.PlayerID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOGameState(g, s.now()))
}

func moveLabel(req chessdto.MoveRequest) string {
	if req.Move != "" {
		return req.Move
	}
	return req.From + req.To + req.Promotion
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
