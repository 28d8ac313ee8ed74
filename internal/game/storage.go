package game

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/types"
)

// fileState is the on-disk layout of a FileRepository
type fileState struct {
	Characters map[string]*types.Character `json:"characters"`
	Events     []*types.GameEvent          `json:"events"`
	Secrets    []types.SecretDiscovery     `json:"secrets"`
}

// FileRepository persists characters in a single JSON file. Every mutation
// rewrites the file and only becomes visible once the write succeeded.
type FileRepository struct {
	savePath  string
	state     *fileState
	stateLock sync.RWMutex
}

var _ interfaces.CharacterRepository = (*FileRepository)(nil)

// NewFileRepository opens or creates the JSON store at savePath
func NewFileRepository(savePath string) (*FileRepository, error) {
	dir := filepath.Dir(savePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	repo := &FileRepository{savePath: savePath}
	state, err := repo.load()
	if err != nil {
		return nil, err
	}
	repo.state = state
	return repo, nil
}

func (r *FileRepository) load() (*fileState, error) {
	state := &fileState{Characters: make(map[string]*types.Character)}

	data, err := os.ReadFile(r.savePath)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if state.Characters == nil {
		state.Characters = make(map[string]*types.Character)
	}
	return state, nil
}

// save writes next to disk through a temporary file and swaps it in
func (r *FileRepository) save(next *fileState) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := r.savePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmp, r.savePath); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}

	r.state = next
	return nil
}

// snapshot returns a shallow copy of the current state whose collections can
// be modified without affecting it
func (r *FileRepository) snapshot() *fileState {
	next := &fileState{
		Characters: make(map[string]*types.Character, len(r.state.Characters)),
		Events:     make([]*types.GameEvent, len(r.state.Events)),
		Secrets:    make([]types.SecretDiscovery, len(r.state.Secrets)),
	}
	for id, c := range r.state.Characters {
		next.Characters[id] = c
	}
	copy(next.Events, r.state.Events)
	copy(next.Secrets, r.state.Secrets)
	return next
}

// CreateCharacter stores a new character
func (r *FileRepository) CreateCharacter(_ context.Context, character *types.Character) error {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	if _, exists := r.state.Characters[character.ID]; exists {
		return fmt.Errorf("character %s already exists", character.ID)
	}

	next := r.snapshot()
	next.Characters[character.ID] = character.Clone()
	return r.save(next)
}

// GetCharacter retrieves a character by id
func (r *FileRepository) GetCharacter(_ context.Context, id string) (*types.Character, error) {
	r.stateLock.RLock()
	defer r.stateLock.RUnlock()

	character, exists := r.state.Characters[id]
	if !exists {
		return nil, interfaces.ErrNotFound
	}
	return character.Clone(), nil
}

// ListCharacters returns the characters owned by userID
func (r *FileRepository) ListCharacters(_ context.Context, userID string) ([]*types.Character, error) {
	r.stateLock.RLock()
	defer r.stateLock.RUnlock()

	var out []*types.Character
	for _, c := range r.state.Characters {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateCharacter applies a partial update to a character
func (r *FileRepository) UpdateCharacter(_ context.Context, id string, patch types.CharacterPatch) error {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	current, exists := r.state.Characters[id]
	if !exists {
		return interfaces.ErrNotFound
	}

	updated := current.Clone()
	patch.ApplyTo(updated)
	updated.UpdatedAt = time.Now()

	next := r.snapshot()
	next.Characters[id] = updated
	return r.save(next)
}

// AppendEvent adds a history record
func (r *FileRepository) AppendEvent(_ context.Context, event *types.GameEvent) error {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	if _, exists := r.state.Characters[event.CharacterID]; !exists {
		return interfaces.ErrNotFound
	}

	record := *event
	next := r.snapshot()
	next.Events = append(next.Events, &record)
	return r.save(next)
}

// ListEvents returns the history of a character in insertion order
func (r *FileRepository) ListEvents(_ context.Context, characterID string) ([]*types.GameEvent, error) {
	r.stateLock.RLock()
	defer r.stateLock.RUnlock()

	var out []*types.GameEvent
	for _, e := range r.state.Events {
		if e.CharacterID == characterID {
			record := *e
			out = append(out, &record)
		}
	}
	return out, nil
}

// RecordSecret stores a discovery and marks the secret path on the character
func (r *FileRepository) RecordSecret(_ context.Context, discovery types.SecretDiscovery) error {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	current, exists := r.state.Characters[discovery.CharacterID]
	if !exists {
		return interfaces.ErrNotFound
	}

	updated := current.Clone()
	updated.SecretPath = discovery.SecretPathID
	updated.UpdatedAt = time.Now()

	next := r.snapshot()
	next.Characters[updated.ID] = updated
	next.Secrets = append(next.Secrets, discovery)
	return r.save(next)
}

// ListSecrets returns the discoveries of a character
func (r *FileRepository) ListSecrets(_ context.Context, characterID string) ([]types.SecretDiscovery, error) {
	r.stateLock.RLock()
	defer r.stateLock.RUnlock()

	var out []types.SecretDiscovery
	for _, s := range r.state.Secrets {
		if s.CharacterID == characterID {
			out = append(out, s)
		}
	}
	return out, nil
}
