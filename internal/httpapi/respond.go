package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

const maxBodyBytes = 64 << 10

var errBadBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a rejection body. data feeds the message template.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, data map[string]any) {
	var derr chessdto.DomainError
	if errors.Is(err, errBadBody) {
		derr = chessdto.DomainError{Code: chessdto.CodeInvalidInput, Message: err.Error()}
		writeJSON(w, http.StatusBadRequest, derr)
		return
	}
	derr = chesspresenter.ToDomainError(err, s.catalog, data)
	status := statusFor(derr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http_request_failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, derr)
}

func statusFor(code string) int {
	switch code {
	case chessdto.CodeIllegalMove, chessdto.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case chessdto.CodeNotYourTurn, chessdto.CodeGameOver, chessdto.CodeConflict,
		chessdto.CodeSessionInProgress, chessdto.CodeUndoUnavailable,
		chessdto.CodeLobbyUnavailable, chessdto.CodePlayerBusy:
		return http.StatusConflict
	case chessdto.CodeNotFound:
		return http.StatusNotFound
	case chessdto.CodeNotParticipant:
		return http.StatusForbidden
	case chessdto.CodeEngineTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}
