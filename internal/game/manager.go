package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/dice"
	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
)

// Persistence operation names reported through PersistenceError
const (
	OpCreate  = "creating character"
	OpChoose  = "saving choice"
	OpAdvance = "advancing time"
	OpTravel  = "traveling"
)

// GameManager handles character life progression on top of a repository
type GameManager struct {
	repo          interfaces.CharacterRepository
	config        config.Config
	Logger        *zap.Logger
	dice          dice.Source
	events        EventTable
	eventSys      *EventSystem
	messageSender interfaces.MessageSender

	// characterID -> userID of players receiving omens
	watchers  map[string]string
	watchLock sync.RWMutex
}

// Ensure GameManager satisfies the interfaces.GameManager interface
var _ interfaces.GameManager = (*GameManager)(nil)

// NewGameManager creates a new game manager
func NewGameManager(cfg config.Config, repo interfaces.CharacterRepository) *GameManager {
	gm := &GameManager{
		repo:     repo,
		config:   cfg,
		Logger:   zap.NewNop(), // Will be set by the server
		dice:     dice.NewRoller(),
		events:   DefaultEventTable(),
		watchers: make(map[string]string),
	}

	gm.eventSys = NewEventSystem(gm, time.Duration(cfg.Game.OmenInterval)*time.Second)

	return gm
}

// SetLogger replaces the manager logger
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.Logger = logger
}

// SetDice replaces the random source used for death checks
func (gm *GameManager) SetDice(src dice.Source) {
	gm.dice = src
}

// SetEventTable replaces the age event content
func (gm *GameManager) SetEventTable(table EventTable) {
	gm.events = table
}

// SetMessageSender sets the message sender
func (gm *GameManager) SetMessageSender(sender interfaces.MessageSender) {
	gm.messageSender = sender
}

// AddOmenSource registers a source polled by the event system
func (gm *GameManager) AddOmenSource(src interfaces.OmenSource) {
	gm.eventSys.AddSource(src)
}

// CreateCharacter creates and stores a new living character
func (gm *GameManager) CreateCharacter(ctx context.Context, req types.NewCharacter) (*types.Character, error) {
	character, err := NewCharacter(gm.config.Game, req)
	if err != nil {
		return nil, err
	}

	if err := gm.repo.CreateCharacter(ctx, character); err != nil {
		return nil, persistErr(OpCreate, err)
	}

	gm.Logger.Info("Character created",
		zap.String("character_id", character.ID),
		zap.String("user_id", character.UserID),
		zap.String("name", character.Name),
		zap.String("clan", character.Clan),
		zap.String("profession", character.Profession))

	return character, nil
}

// GetCharacter retrieves a character by id
func (gm *GameManager) GetCharacter(ctx context.Context, id string) (*types.Character, error) {
	character, err := gm.repo.GetCharacter(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	return character, nil
}

// ListCharacters returns the characters owned by a user, oldest first
func (gm *GameManager) ListCharacters(ctx context.Context, userID string) ([]*types.Character, error) {
	characters, err := gm.repo.ListCharacters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	sort.SliceStable(characters, func(i, j int) bool {
		return characters[i].CreatedAt.Before(characters[j].CreatedAt)
	})
	return characters, nil
}

// PendingEvent returns the event scripted for the character's current age
func (gm *GameManager) PendingEvent(ctx context.Context, id string) (*types.AgeEvent, error) {
	character, err := gm.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !character.IsAlive {
		return nil, ErrCharacterDeceased
	}

	event, ok := gm.eventFor(character.Age)
	if !ok {
		return nil, ErrNoPendingEvent
	}
	return &event, nil
}

// Choose resolves a choice of the pending event: its effects are applied,
// the death evaluator runs and, if the character survives, a year passes.
// The new state is returned only once the store accepted it.
func (gm *GameManager) Choose(ctx context.Context, id string, choice int) (*types.ChoiceOutcome, error) {
	character, err := gm.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !character.IsAlive {
		return nil, ErrCharacterDeceased
	}

	event, ok := gm.eventFor(character.Age)
	if !ok {
		return nil, ErrNoPendingEvent
	}
	if choice < 0 || choice >= len(event.Choices) {
		return nil, ErrInvalidChoice
	}
	selected := event.Choices[choice]
	year := character.CurrentYear

	updated := ApplyChoice(character, selected)
	death := CheckDeath(updated, gm.dice)
	if death.IsDead {
		updated = Kill(updated, death.Reason)
	} else {
		updated = Advance(updated, MonthsPerYear)
		if !updated.IsAlive {
			death = types.DeathCheck{IsDead: true, Reason: updated.DeathReason}
		}
	}

	if err := gm.commit(ctx, OpChoose, character, updated); err != nil {
		return nil, err
	}

	record := &types.GameEvent{
		ID:           uuid.New().String(),
		CharacterID:  character.ID,
		EventType:    types.EventTypeAgeEvent,
		Title:        event.Title,
		Description:  event.Description,
		Choices:      event.ChoiceLabels(),
		Consequences: []string{selected.Consequence},
		Year:         year,
		CreatedAt:    time.Now(),
	}
	if err := gm.repo.AppendEvent(ctx, record); err != nil {
		gm.Logger.Warn("Failed to record event history",
			zap.String("character_id", character.ID),
			zap.String("event", event.Title),
			zap.Error(err))
	}

	gm.Logger.Info("Choice resolved",
		zap.String("character_id", character.ID),
		zap.String("event", event.Title),
		zap.Int("choice", choice),
		zap.Int("age", updated.Age),
		zap.Bool("alive", updated.IsAlive),
		zap.String("death_reason", updated.DeathReason))

	outcome := &types.ChoiceOutcome{
		Character: updated,
		Event:     event,
		Choice:    selected,
		Death:     death,
		Year:      year,
	}
	if updated.IsAlive {
		if next, ok := gm.eventFor(updated.Age); ok {
			outcome.NextEvent = &next
		}
	}
	return outcome, nil
}

// AdvanceTime moves the character's clock forward. Old age is handled by
// Advance; the death evaluator runs afterwards whenever a year went by.
func (gm *GameManager) AdvanceTime(ctx context.Context, id string, months int) (*types.AdvanceOutcome, error) {
	if months < 0 {
		return nil, ErrInvalidDuration
	}

	character, err := gm.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !character.IsAlive {
		return nil, ErrCharacterDeceased
	}

	years := months / MonthsPerYear
	updated := Advance(character, months)

	var death types.DeathCheck
	switch {
	case !updated.IsAlive:
		death = types.DeathCheck{IsDead: true, Reason: updated.DeathReason}
	case years > 0:
		death = CheckDeath(updated, gm.dice)
		if death.IsDead {
			updated = Kill(updated, death.Reason)
		}
	}

	if err := gm.commit(ctx, OpAdvance, character, updated); err != nil {
		return nil, err
	}

	gm.Logger.Info("Time advanced",
		zap.String("character_id", character.ID),
		zap.Int("months", months),
		zap.Int("years", years),
		zap.Int("age", updated.Age),
		zap.Bool("alive", updated.IsAlive))

	outcome := &types.AdvanceOutcome{
		Character:    updated,
		YearsElapsed: years,
		Death:        death,
	}
	if updated.IsAlive && years > 0 {
		if next, ok := gm.eventFor(updated.Age); ok {
			outcome.NextEvent = &next
		}
	}
	return outcome, nil
}

// CurrentTime reports the in-game calendar of a character
func (gm *GameManager) CurrentTime(ctx context.Context, id string) (*types.TimeOfYear, error) {
	character, err := gm.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	t := CurrentTime(character)
	return &t, nil
}

// History returns the event history of a character, oldest first
func (gm *GameManager) History(ctx context.Context, id string) ([]*types.GameEvent, error) {
	if _, err := gm.GetCharacter(ctx, id); err != nil {
		return nil, err
	}
	events, err := gm.repo.ListEvents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Locations returns the travel map
func (gm *GameManager) Locations() []types.MapLocation {
	return Locations()
}

// Travel moves a character to a map location
func (gm *GameManager) Travel(ctx context.Context, id, locationID string) (*types.Character, error) {
	location, ok := FindLocation(locationID)
	if !ok {
		return nil, ErrUnknownLocation
	}

	character, err := gm.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTravel(character, location); err != nil {
		return nil, err
	}

	updated := MoveTo(character, location)
	if err := gm.commit(ctx, OpTravel, character, updated); err != nil {
		return nil, err
	}

	gm.Logger.Info("Character traveled",
		zap.String("character_id", character.ID),
		zap.String("location", location.Name),
		zap.String("region", location.Region))

	return updated, nil
}

// Watch registers a player to receive omens about a character
func (gm *GameManager) Watch(characterID, userID string) {
	gm.watchLock.Lock()
	defer gm.watchLock.Unlock()
	gm.watchers[characterID] = userID
}

// Unwatch stops omen delivery for a character
func (gm *GameManager) Unwatch(characterID string) {
	gm.watchLock.Lock()
	defer gm.watchLock.Unlock()
	delete(gm.watchers, characterID)
}

// watched returns a snapshot of the watcher registry
func (gm *GameManager) watched() map[string]string {
	gm.watchLock.RLock()
	defer gm.watchLock.RUnlock()
	out := make(map[string]string, len(gm.watchers))
	for characterID, userID := range gm.watchers {
		out[characterID] = userID
	}
	return out
}

// SendMessage sends a message to a player
func (gm *GameManager) SendMessage(userID string, message string) error {
	if gm.messageSender == nil {
		return fmt.Errorf("message sender not set")
	}

	if _, err := gm.messageSender.SendMessage(userID, message); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// StartEventSystem starts the omen ticker
func (gm *GameManager) StartEventSystem() {
	gm.eventSys.Start()
}

// StopEventSystem stops the omen ticker
func (gm *GameManager) StopEventSystem() {
	gm.eventSys.Stop()
}

func (gm *GameManager) eventFor(age int) (types.AgeEvent, bool) {
	events := gm.events.Lookup(age)
	if len(events) == 0 {
		return types.AgeEvent{}, false
	}
	return events[0], true
}

// commit writes the difference between before and after in a single update
func (gm *GameManager) commit(ctx context.Context, op string, before, after *types.Character) error {
	patch := types.DiffCharacters(before, after)
	if patch.IsEmpty() {
		return nil
	}

	if err := gm.repo.UpdateCharacter(ctx, before.ID, patch); err != nil {
		gm.Logger.Error("Failed to persist character",
			zap.String("character_id", before.ID),
			zap.String("op", op),
			zap.Error(err))
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrCharacterNotFound
		}
		return persistErr(op, err)
	}

	after.UpdatedAt = time.Now()
	return nil
}
