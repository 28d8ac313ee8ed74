package interfaces

import (
	"context"
	"errors"

	"github.com/user/cronicas-do-japao/internal/types"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("record not found")

// MessageSender defines the interface for sending messages
type MessageSender interface {
	SendMessage(recipient, message string) (string, error)
}

// OmenSource produces an occasional narrative notice for a watched character
type OmenSource interface {
	Omen(characterID string) (string, bool)
}

// CharacterRepository is the read/update contract against the character store
type CharacterRepository interface {
	CreateCharacter(ctx context.Context, character *types.Character) error
	GetCharacter(ctx context.Context, id string) (*types.Character, error)
	ListCharacters(ctx context.Context, userID string) ([]*types.Character, error)
	UpdateCharacter(ctx context.Context, id string, patch types.CharacterPatch) error
	AppendEvent(ctx context.Context, event *types.GameEvent) error
	ListEvents(ctx context.Context, characterID string) ([]*types.GameEvent, error)
	RecordSecret(ctx context.Context, discovery types.SecretDiscovery) error
	ListSecrets(ctx context.Context, characterID string) ([]types.SecretDiscovery, error)
}

// GameManager defines the interface for game operations
type GameManager interface {
	CreateCharacter(ctx context.Context, req types.NewCharacter) (*types.Character, error)
	GetCharacter(ctx context.Context, id string) (*types.Character, error)
	ListCharacters(ctx context.Context, userID string) ([]*types.Character, error)
	PendingEvent(ctx context.Context, id string) (*types.AgeEvent, error)
	Choose(ctx context.Context, id string, choice int) (*types.ChoiceOutcome, error)
	AdvanceTime(ctx context.Context, id string, months int) (*types.AdvanceOutcome, error)
	CurrentTime(ctx context.Context, id string) (*types.TimeOfYear, error)
	History(ctx context.Context, id string) ([]*types.GameEvent, error)
	Locations() []types.MapLocation
	Travel(ctx context.Context, id, locationID string) (*types.Character, error)
	Watch(characterID, userID string)
	Unwatch(characterID string)
}
