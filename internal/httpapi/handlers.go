package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/user/cronicas-do-japao/internal/combat"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/occult"
	"github.com/user/cronicas-do-japao/internal/secrets"
	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
)

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req types.NewCharacter
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, r, fmt.Errorf("%w: user_id is required", errBadRequest))
		return
	}

	character, err := s.games.CreateCharacter(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, character)
}

func (s *Server) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, r, fmt.Errorf("%w: user_id is required", errBadRequest))
		return
	}

	characters, err := s.games.ListCharacters(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if characters == nil {
		characters = []*types.Character{}
	}
	writeJSON(w, http.StatusOK, characters)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	character, err := s.games.GetCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

func (s *Server) handlePendingEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.games.PendingEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Choice *int `json:"choice"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Choice == nil {
		s.writeError(w, r, fmt.Errorf("%w: choice is required", errBadRequest))
		return
	}

	id := chi.URLParam(r, "id")
	outcome, err := s.games.Choose(r.Context(), id, *req.Choice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if outcome.Death.IsDead {
		s.systems.Arena.Abandon(id)
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Months *int `json:"months"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	months := game.MonthsPerYear
	if req.Months != nil {
		months = *req.Months
	}

	id := chi.URLParam(r, "id")
	outcome, err := s.games.AdvanceTime(r.Context(), id, months)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if outcome.Death.IsDead {
		s.systems.Arena.Abandon(id)
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	now, err := s.games.CurrentTime(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, now)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.games.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []*types.GameEvent{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.games.Locations())
}

func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocationID string `json:"location_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	character, err := s.games.Travel(r.Context(), chi.URLParam(r, "id"), req.LocationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

// living loads a character that must still be alive to act
func (s *Server) living(ctx context.Context, id string) (*types.Character, error) {
	character, err := s.games.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !character.IsAlive {
		return nil, game.ErrCharacterDeceased
	}
	return character, nil
}

// fighter loads a character that may keep fighting. The open fight of a dead
// character is dropped.
func (s *Server) fighter(ctx context.Context, id string) (*types.Character, error) {
	character, err := s.living(ctx, id)
	if errors.Is(err, game.ErrCharacterDeceased) {
		s.systems.Arena.Abandon(id)
	}
	return character, err
}

func (s *Server) handleProfessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.Professions())
}

func (s *Server) handleEnemies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, combat.Enemies())
}

func (s *Server) handleStartCombat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EnemyID string `json:"enemy_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	character, err := s.living(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fight, err := s.systems.Arena.Start(character.ID, req.EnemyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fight)
}

func (s *Server) handleCombatAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	character, err := s.fighter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	turn, err := s.systems.Arena.Act(character.ID, combat.Action(req.Action))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleResolveCombat(w http.ResponseWriter, r *http.Request) {
	character, err := s.fighter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.systems.Arena.Resolve(character.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOccultEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, occult.Events())
}

func (s *Server) handleOccultState(w http.ResponseWriter, r *http.Request) {
	character, err := s.games.GetCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.systems.Occult.State(character.ID))
}

func (s *Server) handleOccultInvestigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	character, err := s.living(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, err := s.systems.Occult.Investigate(character.ID, req.EventID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleSecretPaths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, secrets.Paths())
}

type secretsResponse struct {
	Standing      secrets.Standing       `json:"standing"`
	Discovered    []secrets.Path         `json:"discovered"`
	Investigation *secrets.Investigation `json:"investigation,omitempty"`
}

func (s *Server) handleSecrets(w http.ResponseWriter, r *http.Request) {
	character, err := s.games.GetCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	discovered, err := s.systems.Society.Discovered(r.Context(), character.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if discovered == nil {
		discovered = []secrets.Path{}
	}
	resp := secretsResponse{
		Standing:   s.systems.Standing(character.ID),
		Discovered: discovered,
	}
	if inv, ok := s.systems.Society.Current(character.ID); ok {
		resp.Investigation = inv
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBeginSecret(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PathID string `json:"path_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	character, err := s.living(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, err := s.systems.Society.Begin(r.Context(), character.ID, req.PathID, s.systems.Standing(character.ID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleSecretProgress(w http.ResponseWriter, r *http.Request) {
	character, err := s.living(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	step, err := s.systems.Society.Progress(r.Context(), character.ID)
	if err != nil {
		if !errors.Is(err, secrets.ErrNoInvestigation) {
			err = &game.PersistenceError{Op: "recording secret", Err: err}
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) handleAbandonSecret(w http.ResponseWriter, r *http.Request) {
	if err := s.systems.Society.Abandon(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatures(w http.ResponseWriter, r *http.Request) {
	character, err := s.games.GetCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.systems.Creatures.Active(character.ID))
}

func (s *Server) handleCreatureInvestigate(w http.ResponseWriter, r *http.Request) {
	character, err := s.living(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	step, err := s.systems.Creatures.Investigate(character.ID, chi.URLParam(r, "encounter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := decode(r, &req); err != nil || req.PhoneNumber == "" {
		s.writeError(w, r, fmt.Errorf("%w: phone_number is required", errBadRequest))
		return
	}

	sessionID := uuid.New().String()
	code, err := s.pairing.GenerateQRCode(r.Context(), sessionID, req.PhoneNumber)
	if err != nil {
		s.logger.Error("Failed to generate QR code",
			zap.String("phone_number", req.PhoneNumber),
			zap.Error(err))
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qr_code": code, "session_id": sessionID})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.pairing.ListSessions()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	phoneNumber := chi.URLParam(r, "phone_number")
	sessionID := chi.URLParam(r, "session_id")
	if err := s.pairing.DeleteSession(phoneNumber, sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
