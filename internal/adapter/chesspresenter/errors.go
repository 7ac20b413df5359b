package chesspresenter

import (
	"context"
	"errors"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/msgcat"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchan"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
	svc "github.com/zachsimson/Lockedin-sub000/internal/service/chess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

// ToDomainError classifies err into a rejection code and renders its
// message from cat. Unknown errors become CodeInternal.
func ToDomainError(err error, cat *msgcat.Catalog, data map[string]any) chessdto.DomainError {
	code, retryable := classify(err)
	fallback := "chess service error"
	if err != nil {
		fallback = err.Error()
	}
	if data == nil {
		data = map[string]any{}
	}
	if code == chessdto.CodeNotFound {
		if _, ok := data["What"]; !ok {
			data["What"] = notFoundSubject(err)
		}
	}
	return chessdto.DomainError{
		Code:      code,
		Message:   cat.Rejection(code, data, fallback),
		Retryable: retryable,
	}
}

func classify(err error) (string, bool) {
	var perr *chess.ParseError
	switch {
	case err == nil:
		return chessdto.CodeInternal, false
	case errors.As(err, &perr):
		return chessdto.CodeInvalidInput, false
	case errors.Is(err, chess.ErrIllegalMove):
		return chessdto.CodeIllegalMove, false
	case errors.Is(err, chess.ErrNotYourTurn):
		return chessdto.CodeNotYourTurn, false
	case errors.Is(err, chess.ErrGameOver):
		return chessdto.CodeGameOver, false
	case errors.Is(err, pvpchess.ErrConflict):
		return chessdto.CodeConflict, true
	case errors.Is(err, pvpchess.ErrNotParticipant):
		return chessdto.CodeNotParticipant, false
	case errors.Is(err, pvpchess.ErrGameNotFound),
		errors.Is(err, svc.ErrSessionNotFound),
		errors.Is(err, svc.ErrGameNotFound),
		errors.Is(err, svc.ErrProfileNotFound),
		errors.Is(err, pvpchan.ErrLobbyGone):
		return chessdto.CodeNotFound, false
	case errors.Is(err, svc.ErrSessionInProgress):
		return chessdto.CodeSessionInProgress, false
	case errors.Is(err, svc.ErrUndoNotAvailable):
		return chessdto.CodeUndoUnavailable, false
	case errors.Is(err, svc.ErrEngineTimeout), errors.Is(err, context.DeadlineExceeded):
		return chessdto.CodeEngineTimeout, true
	case errors.Is(err, pvpchan.ErrLobbyStarted):
		return chessdto.CodeLobbyUnavailable, false
	case errors.Is(err, pvpchan.ErrPlayerBusy), errors.Is(err, pvpchan.ErrCreatorHasLobby), errors.Is(err, pvpchan.ErrSelfJoin):
		return chessdto.CodePlayerBusy, false
	case errors.Is(err, pvpchess.ErrInvalidArgs), errors.Is(err, pvpchan.ErrInvalidArgs), errors.Is(err, svc.ErrInvalidInput):
		return chessdto.CodeInvalidInput, false
	}
	return chessdto.CodeInternal, true
}

func notFoundSubject(err error) string {
	switch {
	case errors.Is(err, svc.ErrSessionNotFound):
		return "practice session"
	case errors.Is(err, svc.ErrProfileNotFound):
		return "profile"
	case errors.Is(err, pvpchan.ErrLobbyGone):
		return "lobby"
	}
	return "game"
}
