package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/user/cronicas-do-japao/internal/combat"
	"github.com/user/cronicas-do-japao/internal/creatures"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/occult"
	"github.com/user/cronicas-do-japao/internal/secrets"
	"go.uber.org/zap"
)

// errBadRequest marks malformed request bodies and parameters
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var persistence *game.PersistenceError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, game.ErrInvalidChoice),
		errors.Is(err, game.ErrInvalidName),
		errors.Is(err, game.ErrInvalidDuration),
		errors.Is(err, combat.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrCharacterNotFound),
		errors.Is(err, game.ErrUnknownLocation),
		errors.Is(err, combat.ErrUnknownEnemy),
		errors.Is(err, occult.ErrUnknownEvent),
		errors.Is(err, secrets.ErrUnknownPath),
		errors.Is(err, creatures.ErrUnknownEncounter):
		return http.StatusNotFound
	case errors.Is(err, game.ErrLocationInaccessible),
		errors.Is(err, game.ErrRegionLocked),
		errors.Is(err, secrets.ErrRequirementsNotMet):
		return http.StatusForbidden
	case errors.Is(err, game.ErrCharacterDeceased),
		errors.Is(err, game.ErrNoPendingEvent),
		errors.Is(err, combat.ErrNotFighting),
		errors.Is(err, combat.ErrAlreadyInCombat),
		errors.Is(err, secrets.ErrAlreadyDiscovered),
		errors.Is(err, secrets.ErrNoInvestigation),
		errors.Is(err, secrets.ErrAlreadyInvestigating):
		return http.StatusConflict
	case errors.As(err, &persistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.Join(errBadRequest, err)
}
