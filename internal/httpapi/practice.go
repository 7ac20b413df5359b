package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	svc "github.com/zachsimson/Lockedin-sub000/internal/service/chess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

const maxHistoryLimit = 50

func playerMeta(r *http.Request) svc.SessionMeta {
	return svc.SessionMeta{
		PlayerID:   mux.Vars(r)["player"],
		PlayerName: strings.TrimSpace(r.URL.Query().Get("name")),
	}
}

func (s *Server) startPractice(w http.ResponseWriter, r *http.Request) {
	var req chessdto.StartPracticeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	meta := svc.SessionMeta{PlayerID: req.PlayerID, PlayerName: req.PlayerName}
	state, err := s.practice.Start(r.Context(), meta, req.Difficulty, req.Color)
	switch {
	case errors.Is(err, svc.ErrSessionInProgress) && state != nil:
		writeJSON(w, http.StatusOK, chessdto.StartPracticeResponse{State: chesspresenter.ToDTOState(state), Resumed: true})
	case err != nil:
		s.writeError(w, r, err, map[string]any{"Input": req.Difficulty})
	default:
		writeJSON(w, http.StatusCreated, chessdto.StartPracticeResponse{State: chesspresenter.ToDTOState(state)})
	}
}

func (s *Server) practiceStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.practice.Status(r.Context(), playerMeta(r))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOState(state))
}

func (s *Server) practiceMove(w http.ResponseWriter, r *http.Request) {
	var req chessdto.PracticeMoveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	summary, err := s.practice.Play(r.Context(), playerMeta(r), req.Move)
	if err != nil {
		s.writeError(w, r, err, map[string]any{"Move": req.Move, "Input": req.Move})
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOMoveSummary(summary))
}

func (s *Server) practiceBotMove(w http.ResponseWriter, r *http.Request) {
	summary, err := s.practice.BotMove(r.Context(), playerMeta(r))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOMoveSummary(summary))
}

func (s *Server) practiceUndo(w http.ResponseWriter, r *http.Request) {
	state, err := s.practice.Undo(r.Context(), playerMeta(r))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOState(state))
}

func (s *Server) practiceResign(w http.ResponseWriter, r *http.Request) {
	state, err := s.practice.Resign(r.Context(), playerMeta(r))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOState(state))
}

func (s *Server) practiceLegalMoves(w http.ResponseWriter, r *http.Request) {
	square := strings.TrimSpace(r.URL.Query().Get("square"))
	moves, err := s.practice.LegalMoves(r.Context(), playerMeta(r), square)
	if err != nil {
		s.writeError(w, r, err, map[string]any{"Input": square})
		return
	}
	writeJSON(w, http.StatusOK, chessdto.LegalMovesResponse{Square: square, Moves: nonNil(moves)})
}

func (s *Server) practiceHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, errBadBody, nil)
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	games, err := s.practice.History(r.Context(), playerMeta(r), limit)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.HistoryResponse{Games: chesspresenter.ToDTOGames(games)})
}

func (s *Server) practiceGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["gameID"], 10, 64)
	if err != nil {
		s.writeError(w, r, errBadBody, nil)
		return
	}
	g, err := s.practice.Game(r.Context(), playerMeta(r), id)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOGame(g))
}

func (s *Server) practiceProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.practice.Profile(r.Context(), playerMeta(r))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOProfile(p))
}

func (s *Server) practiceUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req chessdto.UpdateDifficultyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	p, err := s.practice.UpdatePreferredDifficulty(r.Context(), playerMeta(r), req.Difficulty)
	if err != nil {
		s.writeError(w, r, err, map[string]any{"Input": req.Difficulty})
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOProfile(p))
}
