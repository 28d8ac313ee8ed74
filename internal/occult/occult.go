// Package occult tracks the slow awakening of a character's perception of the
// supernatural: natural events are witnessed and may later be investigated.
package occult

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/user/cronicas-do-japao/internal/dice"
	"go.uber.org/zap"
)

// ErrUnknownEvent is returned when investigating an event the character never witnessed
var ErrUnknownEvent = errors.New("occult event not witnessed")

// TriggerChance is the probability that a tick surfaces an event
const TriggerChance = 0.1

// Event types
const (
	TypeEncounter  = "encounter"
	TypeRitual     = "ritual"
	TypeDiscovery  = "discovery"
	TypeCorruption = "corruption"
)

// Effects flags which hidden attributes an event touches
type Effects struct {
	Perception bool `json:"perception"`
	Spiritual  bool `json:"spiritual"`
	Social     bool `json:"social"`
	Corruption bool `json:"corruption"`
}

// Event is a static occult phenomenon
type Event struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Trigger     string  `json:"trigger"`
	Difficulty  int     `json:"difficulty"`
	Effects     Effects `json:"effects"`
}

// Result describes what witnessing an event did
type Result struct {
	Event            Event  `json:"event"`
	Description      string `json:"description"`
	PerceptionGained bool   `json:"perception_gained"`
	SpiritualGained  bool   `json:"spiritual_resistance_gained"`
	SocialImpact     string `json:"social_impact"`
}

// Investigation is the outcome of studying a witnessed event
type Investigation struct {
	Event   Event  `json:"event"`
	Success bool   `json:"success"`
	Entry   string `json:"entry"`
}

// State is the occult standing of one character
type State struct {
	Perception          int      `json:"perception"`
	SpiritualResistance int      `json:"spiritual_resistance"`
	PerceptionTier      string   `json:"perception_tier"`
	ResistanceTier      string   `json:"resistance_tier"`
	Witnessed           []Event  `json:"witnessed"`
	Log                 []string `json:"log"`
}

var naturalEvents = []Event{
	{
		ID:          "strange_sounds_1",
		Name:        "Sons Estranhos",
		Description: "Durante a noite, você ouve sussurros que não parecem humanos. Vêm de direções impossíveis.",
		Type:        TypeEncounter,
		Trigger:     "time",
		Difficulty:  2,
		Effects:     Effects{Perception: true},
	},
	{
		ID:          "missing_object_1",
		Name:        "Objeto Desaparecido",
		Description: "Um objeto pessoal desaparece misteriosamente de seu quarto. Ninguém viu nada.",
		Type:        TypeDiscovery,
		Trigger:     "location",
		Difficulty:  1,
		Effects:     Effects{Perception: true},
	},
	{
		ID:          "whispers_1",
		Name:        "Sussurros Incompreensíveis",
		Description: "Em momentos de silêncio, você ouve sussurros em uma língua que não reconhece.",
		Type:        TypeEncounter,
		Trigger:     "social",
		Difficulty:  3,
		Effects:     Effects{Perception: true, Spiritual: true},
	},
	{
		ID:          "shadow_movement_1",
		Name:        "Sombras que se Movem",
		Description: "Sua sombra se move independentemente de você. Às vezes, ela assume formas que não deveriam.",
		Type:        TypeCorruption,
		Trigger:     "action",
		Difficulty:  4,
		Effects:     Effects{Corruption: true},
	},
}

// Events returns the natural occult events
func Events() []Event {
	out := make([]Event, len(naturalEvents))
	copy(out, naturalEvents)
	return out
}

// InvestigationChance is the success probability of studying an event
func InvestigationChance(difficulty int) float64 {
	return 0.7 - float64(difficulty)*0.05
}

// PerceptionTier describes a perception level
func PerceptionTier(level int) string {
	switch {
	case level <= 0:
		return "Você não nota nada incomum"
	case level <= 3:
		return "Você começa a notar padrões estranhos"
	case level <= 6:
		return "Você reconhece fenômenos sobrenaturais"
	default:
		return "Você entende a natureza do oculto"
	}
}

// ResistanceTier describes a spiritual resistance level
func ResistanceTier(level int) string {
	switch {
	case level <= 0:
		return "Vulnerável a influências"
	case level <= 3:
		return "Resiste a influências fracas"
	case level <= 6:
		return "Resiste a influências moderadas"
	default:
		return "Resistente a influências fortes"
	}
}

type standing struct {
	perception int
	spiritual  int
	witnessed  []Event
	log        []string
}

// Tracker keeps the occult standing of every character in memory
type Tracker struct {
	states map[string]*standing
	lock   sync.RWMutex
	dice   dice.Source
	logger *zap.Logger
}

// NewTracker creates a tracker rolling on src
func NewTracker(src dice.Source, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		states: make(map[string]*standing),
		dice:   src,
		logger: logger,
	}
}

func (t *Tracker) stateFor(characterID string) *standing {
	s, ok := t.states[characterID]
	if !ok {
		s = &standing{}
		t.states[characterID] = s
	}
	return s
}

// Tick rolls for a natural event and, if one surfaces, has the character
// witness it
func (t *Tracker) Tick(characterID string) (*Result, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !dice.Chance(t.dice, TriggerChance) {
		return nil, false
	}
	event := naturalEvents[t.dice.Intn(len(naturalEvents))]
	return t.witness(characterID, event), true
}

func (t *Tracker) witness(characterID string, event Event) *Result {
	s := t.stateFor(characterID)

	entry := fmt.Sprintf("🌑 %s: %s", event.Name, event.Description)
	if event.Effects.Perception {
		s.perception++
		entry += " 🧭 Sua percepção aumentou!"
	}
	if event.Effects.Spiritual {
		s.spiritual++
		entry += " ✝️ Sua resistência espiritual aumentou!"
	}
	if event.Effects.Corruption {
		entry += " 😨 Você sente algo errado acontecendo..."
	}

	s.witnessed = append(s.witnessed, event)
	s.log = append(s.log, entry)

	impact := "curiosidade"
	if event.Effects.Corruption {
		impact = "medo"
	}

	t.logger.Info("Occult event witnessed",
		zap.String("character_id", characterID),
		zap.String("event", event.ID),
		zap.Int("perception", s.perception))

	return &Result{
		Event:            event,
		Description:      entry,
		PerceptionGained: event.Effects.Perception,
		SpiritualGained:  event.Effects.Spiritual,
		SocialImpact:     impact,
	}
}

// Investigate studies a witnessed event
func (t *Tracker) Investigate(characterID, eventID string) (*Investigation, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	s := t.stateFor(characterID)
	var event *Event
	for i := range s.witnessed {
		if s.witnessed[i].ID == eventID {
			event = &s.witnessed[i]
			break
		}
	}
	if event == nil {
		return nil, ErrUnknownEvent
	}

	entry := fmt.Sprintf("🔍 Você investiga %s...", event.Name)
	success := dice.Chance(t.dice, InvestigationChance(event.Difficulty))
	if success {
		entry += fmt.Sprintf(" Descobriu: %s...", truncate(event.Description, 50))
		if event.Effects.Perception {
			s.perception += 2
			entry += " 🧭 Percepção aumentou significativamente!"
		}
	} else {
		entry += " Não conseguiu entender completamente. Algo escapa de sua compreensão."
	}
	s.log = append(s.log, entry)

	return &Investigation{Event: *event, Success: success, Entry: entry}, nil
}

// State returns the occult standing of a character
func (t *Tracker) State(characterID string) State {
	t.lock.RLock()
	defer t.lock.RUnlock()

	s, ok := t.states[characterID]
	if !ok {
		s = &standing{}
	}
	return State{
		Perception:          s.perception,
		SpiritualResistance: s.spiritual,
		PerceptionTier:      PerceptionTier(s.perception),
		ResistanceTier:      ResistanceTier(s.spiritual),
		Witnessed:           append([]Event(nil), s.witnessed...),
		Log:                 append([]string(nil), s.log...),
	}
}

// Omen runs a tick and renders its result as a message
func (t *Tracker) Omen(characterID string) (string, bool) {
	result, ok := t.Tick(characterID)
	if !ok {
		return "", false
	}
	return result.Description, true
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
