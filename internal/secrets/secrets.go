// Package secrets implements the secret society paths a character can uncover
// through patient investigation.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
)

var (
	ErrUnknownPath          = errors.New("secret path not found")
	ErrRequirementsNotMet   = errors.New("requirements for this path are not met")
	ErrAlreadyDiscovered    = errors.New("secret path already discovered")
	ErrNoInvestigation      = errors.New("no secret path under investigation")
	ErrAlreadyInvestigating = errors.New("another secret path is under investigation")
)

// ProgressStep is added to an investigation per action
const ProgressStep = 10

// ProgressComplete discovers the path
const ProgressComplete = 100

// Store persists discoveries. interfaces.CharacterRepository satisfies it.
type Store interface {
	RecordSecret(ctx context.Context, discovery types.SecretDiscovery) error
	ListSecrets(ctx context.Context, characterID string) ([]types.SecretDiscovery, error)
}

// Requirements gate access to a path
type Requirements struct {
	Perception int    `json:"perception"`
	Spiritual  int    `json:"spiritual"`
	Social     int    `json:"social"`
	Honor      int    `json:"honor"`
	Location   string `json:"location,omitempty"`
	Time       string `json:"time,omitempty"`
}

// Rewards granted by a discovered path
type Rewards struct {
	Path      string   `json:"path"`
	Abilities []string `json:"abilities"`
	Knowledge []string `json:"knowledge"`
}

// Path is a static secret path definition
type Path struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Type         string       `json:"type"`
	Requirements Requirements `json:"requirements"`
	Rewards      Rewards      `json:"rewards"`
}

// Standing is what a character brings to the requirements check
type Standing struct {
	Perception int `json:"perception"`
	Spiritual  int `json:"spiritual"`
	Social     int `json:"social"`
	Honor      int `json:"honor"`
}

// BaseStanding is the standing of a common character
var BaseStanding = Standing{Perception: 3, Spiritual: 2, Social: 1, Honor: 10}

// StandingFor raises the base standing by the perception and spiritual
// resistance a character has awakened
func StandingFor(perception, spiritual int) Standing {
	s := BaseStanding
	s.Perception += perception
	s.Spiritual += spiritual
	return s
}

// Investigation is the progress of a character towards a path
type Investigation struct {
	CharacterID string    `json:"character_id"`
	Path        Path      `json:"path"`
	Progress    int       `json:"progress"`
	StartedAt   time.Time `json:"started_at"`
}

// Step is the result of advancing an investigation
type Step struct {
	Path       Path   `json:"path"`
	Progress   int    `json:"progress"`
	Discovered bool   `json:"discovered"`
	Message    string `json:"message"`
}

var secretPaths = []Path{
	{
		ID:           "yokai_hunter_path",
		Name:         "Caçador de Yōkai",
		Description:  "Você começa a ver padrões que outros não percebem. Rastros que se movem de forma antinatural, sombras que não correspondem a nada.",
		Type:         "yokai",
		Requirements: Requirements{Perception: 3, Spiritual: 2, Social: 1, Honor: 10, Location: "forest_night", Time: "night"},
		Rewards: Rewards{
			Path:      "yokai_hunter",
			Abilities: []string{"Rastrear Criaturas", "Sentir Presença Sobrenatural", "Armas Especiais"},
			Knowledge: []string{"Fraqueza Yōkai", "Tipos de Criaturas", "Fraquezas Espirituais"},
		},
	},
	{
		ID:           "kami_shrine_path",
		Name:         "Sacerdote de Kami",
		Description:  "Os espíritos da natureza começam a responder suas preces. Você pode aprender a se comunicar com entidades que outros temem.",
		Type:         "kami",
		Requirements: Requirements{Perception: 2, Spiritual: 5, Social: 3, Honor: 15, Location: "shrine", Time: "dawn"},
		Rewards: Rewards{
			Path:      "kami_shrine",
			Abilities: []string{"Comunicação Espiritual", "Rituais Purificadores", "Proteção Divina"},
			Knowledge: []string{"Nomes de Espíritos", "História Sagrada", "Fraquezas Espirituais"},
		},
	},
	{
		ID:           "onmyoji_path",
		Name:         "Onmyōji",
		Description:  "Você percebe que as emoções afetam o mundo espiritual. Através da disciplina, pode aprender a manipular essa energia.",
		Type:         "onmyoji",
		Requirements: Requirements{Perception: 4, Spiritual: 3, Social: 2, Honor: 20, Location: "temple", Time: "meditation"},
		Rewards: Rewards{
			Path:      "onmyoji",
			Abilities: []string{"Controle Emocional", "Leitura de Auras", "Técnicas de Meditação"},
			Knowledge: []string{"Teoria Onmyōdō", "Equilíbrio Espiritual", "História das Emoções"},
		},
	},
	{
		ID:           "tsukumogami_path",
		Name:         "Monge Tsukumogami",
		Description:  "Você descobre que os espíritos podem ser contidos, acalmados e até liberados. Um caminho perigoso que exige grande disciplina.",
		Type:         "tsukumogami",
		Requirements: Requirements{Perception: 5, Spiritual: 7, Social: 1, Honor: 25, Location: "isolated_temple", Time: "midnight"},
		Rewards: Rewards{
			Path:      "tsukumogami",
			Abilities: []string{"Contenção Espiritual", "Selamento de Espíritos", "Rituais Complexos"},
			Knowledge: []string{"Selo Espiritual", "Nomes de Demônios", "História dos Tsukumogami"},
		},
	},
}

// Paths returns every secret path
func Paths() []Path {
	out := make([]Path, len(secretPaths))
	copy(out, secretPaths)
	return out
}

// FindPath looks a path up by id
func FindPath(id string) (Path, bool) {
	for _, p := range secretPaths {
		if p.ID == id {
			return p, true
		}
	}
	return Path{}, false
}

// Accessible reports whether standing meets the numeric requirements of
// path. Location and time requirements are narrative only.
func Accessible(path Path, standing Standing) bool {
	r := path.Requirements
	return standing.Perception >= r.Perception &&
		standing.Spiritual >= r.Spiritual &&
		standing.Social >= r.Social &&
		standing.Honor >= r.Honor
}

// Society tracks secret path investigations, one per character
type Society struct {
	store  Store
	active map[string]*Investigation
	lock   sync.Mutex
	logger *zap.Logger
}

// NewSociety creates a society persisting discoveries in store
func NewSociety(store Store, logger *zap.Logger) *Society {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Society{
		store:  store,
		active: make(map[string]*Investigation),
		logger: logger,
	}
}

// Begin starts investigating a path
func (s *Society) Begin(ctx context.Context, characterID, pathID string, standing Standing) (*Investigation, error) {
	path, ok := FindPath(pathID)
	if !ok {
		return nil, ErrUnknownPath
	}
	if !Accessible(path, standing) {
		return nil, ErrRequirementsNotMet
	}

	discovered, err := s.store.ListSecrets(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	for _, d := range discovered {
		if d.SecretPathID == pathID {
			return nil, ErrAlreadyDiscovered
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if current, busy := s.active[characterID]; busy && current.Path.ID != pathID {
		return nil, ErrAlreadyInvestigating
	}

	inv := &Investigation{CharacterID: characterID, Path: path, StartedAt: time.Now()}
	s.active[characterID] = inv

	s.logger.Info("Secret investigation started",
		zap.String("character_id", characterID),
		zap.String("path", pathID))

	out := *inv
	return &out, nil
}

// Current returns the investigation in progress for a character
func (s *Society) Current(characterID string) (*Investigation, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	inv, ok := s.active[characterID]
	if !ok {
		return nil, false
	}
	out := *inv
	return &out, true
}

// Progress advances the current investigation. Reaching completion records
// the discovery; if that write fails the investigation stays complete and
// the next call retries it.
func (s *Society) Progress(ctx context.Context, characterID string) (*Step, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	inv, ok := s.active[characterID]
	if !ok {
		return nil, ErrNoInvestigation
	}

	if inv.Progress < ProgressComplete {
		inv.Progress += ProgressStep
	}
	if inv.Progress < ProgressComplete {
		return &Step{
			Path:     inv.Path,
			Progress: inv.Progress,
			Message:  fmt.Sprintf("🔍 Investigando %s... %d%%", inv.Path.Name, inv.Progress),
		}, nil
	}

	discovery := types.SecretDiscovery{
		CharacterID:  characterID,
		SecretPathID: inv.Path.ID,
		DiscoveredAt: time.Now(),
	}
	if err := s.store.RecordSecret(ctx, discovery); err != nil {
		s.logger.Error("Failed to record secret discovery",
			zap.String("character_id", characterID),
			zap.String("path", inv.Path.ID),
			zap.Error(err))
		return nil, fmt.Errorf("error discovering path: %w", err)
	}
	delete(s.active, characterID)

	s.logger.Info("Secret path discovered",
		zap.String("character_id", characterID),
		zap.String("path", inv.Path.ID))

	return &Step{
		Path:       inv.Path,
		Progress:   ProgressComplete,
		Discovered: true,
		Message:    fmt.Sprintf("Você descobriu o caminho: %s!", inv.Path.Name),
	}, nil
}

// Abandon drops the current investigation
func (s *Society) Abandon(characterID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.active[characterID]; !ok {
		return ErrNoInvestigation
	}
	delete(s.active, characterID)
	return nil
}

// Discovered returns the paths a character has uncovered
func (s *Society) Discovered(ctx context.Context, characterID string) ([]Path, error) {
	discoveries, err := s.store.ListSecrets(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	var out []Path
	for _, d := range discoveries {
		if p, ok := FindPath(d.SecretPathID); ok {
			out = append(out, p)
		}
	}
	return out, nil
}
