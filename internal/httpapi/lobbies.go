package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchan"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

func (s *Server) makeLobby(w http.ResponseWriter, r *http.Request) {
	var req chessdto.LobbyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	res, err := s.lobbies.Make(r.Context(), req.PlayerID, req.PlayerName, pvpchan.ParseColorChoice(req.Color))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, chesspresenter.ToDTOLobby(res.Meta))
}

func (s *Server) listLobbies(w http.ResponseWriter, r *http.Request) {
	metas, err := s.lobbies.ListOpen(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	out := make([]*chessdto.Lobby, 0, len(metas))
	for _, m := range metas {
		out = append(out, chesspresenter.ToDTOLobby(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getLobby(w http.ResponseWriter, r *http.Request) {
	meta, err := s.lobbies.Get(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOLobby(meta))
}

func (s *Server) joinLobby(w http.ResponseWriter, r *http.Request) {
	var req chessdto.LobbyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	res, err := s.lobbies.Join(r.Context(), mux.Vars(r)["code"], req.PlayerID, req.PlayerName)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	resp := chessdto.JoinLobbyResponse{Lobby: chesspresenter.ToDTOLobby(res.Meta)}
	if s.games != nil {
		g, err := s.games.Get(r.Context(), res.GameID)
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		resp.Game = chesspresenter.ToDTOGameState(g, s.now())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) cancelLobby(w http.ResponseWriter, r *http.Request) {
	player := strings.TrimSpace(r.URL.Query().Get("player_id"))
	if err := s.lobbies.Cancel(r.Context(), mux.Vars(r)["code"], player); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
