package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
)

// AgeEventsFile is the content override file read by DataLoader
const AgeEventsFile = "age_events.json"

// DataLoader handles loading game content from files
type DataLoader struct {
	basePath string
}

// NewDataLoader creates a new data loader
func NewDataLoader(basePath string) *DataLoader {
	return &DataLoader{
		basePath: basePath,
	}
}

// LoadAgeEvents loads age event definitions from file
func (dl *DataLoader) LoadAgeEvents() (EventTable, error) {
	path := filepath.Join(dl.basePath, AgeEventsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read age events file: %w", err)
	}

	var events []types.AgeEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse age events data: %w", err)
	}

	table := make(EventTable)
	for _, event := range events {
		if len(event.Choices) == 0 {
			return nil, fmt.Errorf("age event %q at age %d has no choices", event.Title, event.Age)
		}
		table[event.Age] = append(table[event.Age], event)
	}

	return table, nil
}

// LoadEventTable returns the built-in events merged with the overrides found
// in dir. A missing override file is not an error.
func LoadEventTable(dir string) (EventTable, error) {
	table := DefaultEventTable()
	if dir == "" {
		return table, nil
	}

	overrides, err := NewDataLoader(dir).LoadAgeEvents()
	if errors.Is(err, os.ErrNotExist) {
		return table, nil
	}
	if err != nil {
		return nil, err
	}
	return table.Merge(overrides), nil
}

// EventSystem periodically polls omen sources for watched characters and
// delivers what they produce to the player
type EventSystem struct {
	gameManager *GameManager
	interval    time.Duration
	sources     []interfaces.OmenSource
	mu          sync.Mutex
	stopChan    chan struct{}
	running     bool
}

// NewEventSystem creates a new event system. A non-positive interval
// disables it.
func NewEventSystem(gameManager *GameManager, interval time.Duration) *EventSystem {
	return &EventSystem{
		gameManager: gameManager,
		interval:    interval,
	}
}

// AddSource registers an omen source
func (es *EventSystem) AddSource(src interfaces.OmenSource) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.sources = append(es.sources, src)
}

// Start begins the omen loop
func (es *EventSystem) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.running || es.interval <= 0 {
		return
	}
	es.running = true
	es.stopChan = make(chan struct{})

	ticker := time.NewTicker(es.interval)
	stop := es.stopChan
	go func() {
		for {
			select {
			case <-ticker.C:
				es.Tick(context.Background())
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the omen loop
func (es *EventSystem) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()
	if !es.running {
		return
	}
	es.running = false
	close(es.stopChan)
}

// Tick runs one omen cycle over every watched character
func (es *EventSystem) Tick(ctx context.Context) {
	gm := es.gameManager

	es.mu.Lock()
	sources := make([]interfaces.OmenSource, len(es.sources))
	copy(sources, es.sources)
	es.mu.Unlock()

	watched := gm.watched()
	gm.Logger.Debug("Starting omen cycle", zap.Int("watched", len(watched)))

	for characterID, userID := range watched {
		character, err := gm.GetCharacter(ctx, characterID)
		if errors.Is(err, ErrCharacterNotFound) {
			gm.Unwatch(characterID)
			continue
		}
		if err != nil {
			gm.Logger.Error("Failed to load watched character",
				zap.String("character_id", characterID),
				zap.Error(err))
			continue
		}
		if !character.IsAlive {
			gm.Unwatch(characterID)
			continue
		}

		for _, src := range sources {
			omen, ok := src.Omen(characterID)
			if !ok {
				continue
			}

			gm.Logger.Info("Omen triggered",
				zap.String("character_id", characterID),
				zap.String("user_id", userID))

			message := fmt.Sprintf("🌙 *PRESSÁGIO* 🌙\n\n%s\n\n%s", character.Name, omen)
			if err := gm.SendMessage(userID, message); err != nil {
				gm.Logger.Error("Failed to send omen message",
					zap.String("character_id", characterID),
					zap.String("user_id", userID),
					zap.Error(err))
			}
		}
	}
}
