// Package creatures tracks encounters with the things that should not exist.
package creatures

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/cronicas-do-japao/internal/dice"
	"go.uber.org/zap"
)

// ErrUnknownEncounter is returned for an encounter that is not active
var ErrUnknownEncounter = errors.New("encounter not active")

// TriggerChance is the probability that a tick produces an encounter
const TriggerChance = 0.05

// Investigation pacing
const (
	InvestigationStep     = 10
	InvestigationComplete = 100
)

// Kinds of creatures
const (
	KindSubstitute    = "substitute"
	KindContactEntity = "contact_entity"
	KindGhoul         = "ghoul"
)

// Severities of an encounter
const (
	SeveritySubtle   = "subtle"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Effects flags what an encounter touches
type Effects struct {
	Spiritual     bool `json:"spiritual"`
	Psychological bool `json:"psychological"`
	Physical      bool `json:"physical"`
	Permanent     bool `json:"permanent"`
}

// Variant is one concrete way a creature shows itself
type Variant struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Effects     Effects `json:"effects"`
}

// Resolution is how an encounter ends
type Resolution struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Creature is a static creature kind
type Creature struct {
	Kind        string     `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Trigger     string     `json:"trigger"`
	Effects     Effects    `json:"effects"`
	Variants    []Variant  `json:"variants"`
	Resolution  Resolution `json:"resolution"`
}

// Encounter is an active meeting between a character and a creature
type Encounter struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Variant       Variant   `json:"variant"`
	Investigation int       `json:"investigation"`
	StartedAt     time.Time `json:"started_at"`
}

// Step is the result of investigating an encounter
type Step struct {
	Encounter  Encounter   `json:"encounter"`
	Resolved   bool        `json:"resolved"`
	Resolution *Resolution `json:"resolution,omitempty"`
	Message    string      `json:"message"`
}

var creatureKinds = []Creature{
	{
		Kind:        KindSubstitute,
		Name:        "Utsuro Mono (Ser Vazio)",
		Description: "Algo está errado. Uma pessoa que você conhecia voltou, mas não voltou de verdade.",
		Trigger:     "social",
		Effects:     Effects{Psychological: true},
		Variants: []Variant{
			{
				ID:          "substitute_1",
				Description: "Seu vizinho Takashi voltou da guerra, mas seus olhos não piscam. Ele não sente dor, não dorme e observa demais.",
				Severity:    SeveritySubtle,
				Effects:     Effects{Psychological: true},
			},
			{
				ID:          "substitute_2",
				Description: "A criança que brincava perto do rio agora evita o reflexo na água. Ela ri, mas o riso não tem alegria.",
				Severity:    SeverityModerate,
				Effects:     Effects{Psychological: true},
			},
		},
		Resolution: Resolution{
			Type:        "survive",
			Description: "Você percebe a verdade, mas decide não interferir. Alguns segredos melhor permanecer ocultos.",
		},
	},
	{
		Kind:        KindContactEntity,
		Name:        "Ikai no Mono (Coisas do Outro Lado)",
		Description: "Em lugares liminares, a realidade se quebra. Coisas que não deveriam existir aparecem.",
		Trigger:     "location",
		Effects:     Effects{Spiritual: true, Psychological: true, Physical: true},
		Variants: []Variant{
			{
				ID:          "contact_1",
				Description: "Na floresta abandonada, você vê árvores que crescem em espirais. O vento sussurra nomes que você nunca ouviu.",
				Severity:    SeverityModerate,
				Effects:     Effects{Spiritual: true, Psychological: true},
			},
			{
				ID:          "contact_2",
				Description: "A ponte antiga parece mover-se quando ninguém olha. Às vezes, sombras passam por onde não há nada.",
				Severity:    SeveritySevere,
				Effects:     Effects{Spiritual: true, Psychological: true, Physical: true, Permanent: true},
			},
		},
		Resolution: Resolution{
			Type:        "escape",
			Description: "Você foge da área anômala. Sua percepção do mundo mudou para sempre.",
		},
	},
	{
		Kind:        KindGhoul,
		Name:        "Ketsubutsu (Coisas de Sangue)",
		Description: "Humanos que sobreviveram ao impossível, mas pagaram um preço terrível.",
		Trigger:     "action",
		Effects:     Effects{Spiritual: true, Psychological: true, Physical: true, Permanent: true},
		Variants: []Variant{
			{
				ID:          "ghoul_1",
				Description: "O velho que morria de fome na montanha voltou. Mas ele não precisa mais de comida, e seus olhos brilham na escuridão.",
				Severity:    SeveritySevere,
				Effects:     Effects{Spiritual: true, Psychological: true, Physical: true, Permanent: true},
			},
		},
		Resolution: Resolution{
			Type:        "corrupt",
			Description: "O contato deixa uma marca em você. Algo dentro mudou, e nunca mais será o mesmo.",
		},
	},
}

// Creatures returns the creature kinds
func Creatures() []Creature {
	out := make([]Creature, len(creatureKinds))
	copy(out, creatureKinds)
	return out
}

// FindCreature looks a creature up by kind
func FindCreature(kind string) (Creature, bool) {
	for _, c := range creatureKinds {
		if c.Kind == kind {
			return c, true
		}
	}
	return Creature{}, false
}

// Tracker keeps the active encounters of every character in memory
type Tracker struct {
	active map[string][]*Encounter
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
		active: make(map[string][]*Encounter),
		dice:   src,
		logger: logger,
	}
}

// Tick rolls for a new encounter
func (t *Tracker) Tick(characterID string) (*Encounter, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !dice.Chance(t.dice, TriggerChance) {
		return nil, false
	}
	creature := creatureKinds[t.dice.Intn(len(creatureKinds))]
	variant := creature.Variants[t.dice.Intn(len(creature.Variants))]
	return t.begin(characterID, creature, variant), true
}

// Encounter forces a meeting with a creature variant
func (t *Tracker) Encounter(characterID, kind, variantID string) (*Encounter, error) {
	creature, ok := FindCreature(kind)
	if !ok {
		return nil, ErrUnknownEncounter
	}
	for _, v := range creature.Variants {
		if v.ID == variantID {
			t.lock.Lock()
			defer t.lock.Unlock()
			return t.begin(characterID, creature, v), nil
		}
	}
	return nil, ErrUnknownEncounter
}

func (t *Tracker) begin(characterID string, creature Creature, variant Variant) *Encounter {
	// a variant already active is not duplicated
	for _, e := range t.active[characterID] {
		if e.ID == variant.ID {
			out := *e
			return &out
		}
	}

	enc := &Encounter{
		ID:          variant.ID,
		Kind:        creature.Kind,
		Name:        creature.Name,
		Description: creature.Description,
		Variant:     variant,
		StartedAt:   time.Now(),
	}
	t.active[characterID] = append(t.active[characterID], enc)

	t.logger.Info("Creature encounter",
		zap.String("character_id", characterID),
		zap.String("kind", creature.Kind),
		zap.String("variant", variant.ID),
		zap.String("severity", variant.Severity))

	out := *enc
	return &out
}

// Active returns the unresolved encounters of a character
func (t *Tracker) Active(characterID string) []Encounter {
	t.lock.RLock()
	defer t.lock.RUnlock()

	out := make([]Encounter, 0, len(t.active[characterID]))
	for _, e := range t.active[characterID] {
		out = append(out, *e)
	}
	return out
}

// Investigate studies an active encounter. Completing the investigation
// resolves it by the creature's kind and removes it.
func (t *Tracker) Investigate(characterID, encounterID string) (*Step, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	encounters := t.active[characterID]
	idx := -1
	for i, e := range encounters {
		if e.ID == encounterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownEncounter
	}
	enc := encounters[idx]

	enc.Investigation += InvestigationStep
	if enc.Investigation < InvestigationComplete {
		return &Step{
			Encounter: *enc,
			Message:   fmt.Sprintf("🔍 Você investiga %s... %d%%", enc.Name, enc.Investigation),
		}, nil
	}

	creature, _ := FindCreature(enc.Kind)
	resolution := creature.Resolution
	t.active[characterID] = append(encounters[:idx:idx], encounters[idx+1:]...)

	t.logger.Info("Creature encounter resolved",
		zap.String("character_id", characterID),
		zap.String("variant", enc.ID),
		zap.String("resolution", resolution.Type))

	return &Step{
		Encounter:  *enc,
		Resolved:   true,
		Resolution: &resolution,
		Message:    fmt.Sprintf("✅ Resolução: %s", resolution.Description),
	}, nil
}

// Omen runs a tick and renders a new encounter as a message
func (t *Tracker) Omen(characterID string) (string, bool) {
	enc, ok := t.Tick(characterID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("🌑 Encontro: %s\n%s", enc.Name, enc.Variant.Description), true
}
