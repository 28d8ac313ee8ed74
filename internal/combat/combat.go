// Package combat resolves skirmishes against common, non-supernatural enemies.
// Outcomes are narrative only and never change character stats.
package combat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/cronicas-do-japao/internal/dice"
	"go.uber.org/zap"
)

var (
	ErrUnknownEnemy    = errors.New("enemy not found")
	ErrUnknownAction   = errors.New("unknown combat action")
	ErrNotFighting     = errors.New("character is not in combat")
	ErrAlreadyInCombat = errors.New("character is already in combat")
)

// Action is a player move during a fight
type Action string

const (
	ActionAttack Action = "attack"
	ActionDefend Action = "defend"
	ActionFlee   Action = "flee"
)

// Winner identifies how a fight ended
type Winner string

const (
	WinnerPlayer Winner = "player"
	WinnerEnemy  Winner = "npc"
	WinnerFlee   Winner = "flee"
)

// Rewards lists what defeating an enemy can give
type Rewards struct {
	Experience bool `json:"experience"`
	Injury     bool `json:"injury"`
	Social     bool `json:"social"`
}

// Enemy is a static opponent definition
type Enemy struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Difficulty  int     `json:"difficulty"`
	Rewards     Rewards `json:"rewards"`
}

// Fight is an ongoing combat of one character
type Fight struct {
	CharacterID string    `json:"character_id"`
	Enemy       Enemy     `json:"enemy"`
	Log         []string  `json:"log"`
	StartedAt   time.Time `json:"started_at"`
}

// Result is the end of a fight
type Result struct {
	Winner           Winner `json:"winner"`
	Injured          bool   `json:"injured"`
	GainedExperience bool   `json:"gained_experience"`
	Description      string `json:"description"`
}

// Turn is the outcome of a single action
type Turn struct {
	Entry  string  `json:"entry"`
	Fight  *Fight  `json:"fight,omitempty"`
	Result *Result `json:"result,omitempty"`
}

var commonEnemies = []Enemy{
	{
		ID:          "thug_1",
		Name:        "Bandido Local",
		Type:        "thug",
		Description: "Um homem armado com olhar desesperado. Provavelmente precisa de dinheiro.",
		Difficulty:  2,
		Rewards:     Rewards{Experience: true, Injury: true},
	},
	{
		ID:          "guard_1",
		Name:        "Guarda da Cidade",
		Type:        "guard",
		Description: "Um homem uniformizado, apenas fazendo seu trabalho. Não parece querer problemas.",
		Difficulty:  3,
		Rewards:     Rewards{Experience: true, Social: true},
	},
	{
		ID:          "rival_1",
		Name:        "Ferreiro Concorrente",
		Type:        "rival",
		Description: "Um artesão da vila vizinha. Olha você com hostilidade profissional.",
		Difficulty:  4,
		Rewards:     Rewards{Experience: true, Injury: true},
	},
}

// Enemies returns the common enemies
func Enemies() []Enemy {
	out := make([]Enemy, len(commonEnemies))
	copy(out, commonEnemies)
	return out
}

// FindEnemy looks an enemy up by id
func FindEnemy(id string) (Enemy, bool) {
	for _, e := range commonEnemies {
		if e.ID == id {
			return e, true
		}
	}
	return Enemy{}, false
}

// WinChance is the probability of the player winning an auto-resolved fight
func WinChance(difficulty int) float64 {
	return 0.6 - float64(difficulty)*0.05
}

// Arena tracks the fights in progress, one per character
type Arena struct {
	fights map[string]*Fight
	lock   sync.RWMutex
	dice   dice.Source
	logger *zap.Logger
}

// NewArena creates an arena rolling on src
func NewArena(src dice.Source, logger *zap.Logger) *Arena {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arena{
		fights: make(map[string]*Fight),
		dice:   src,
		logger: logger,
	}
}

// Start opens a fight between a character and an enemy
func (a *Arena) Start(characterID, enemyID string) (*Fight, error) {
	enemy, ok := FindEnemy(enemyID)
	if !ok {
		return nil, ErrUnknownEnemy
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if _, busy := a.fights[characterID]; busy {
		return nil, ErrAlreadyInCombat
	}

	fight := &Fight{
		CharacterID: characterID,
		Enemy:       enemy,
		Log:         []string{fmt.Sprintf("⚔️ Combate iniciado contra %s!", enemy.Name), enemy.Description},
		StartedAt:   time.Now(),
	}
	a.fights[characterID] = fight

	a.logger.Info("Combat started",
		zap.String("character_id", characterID),
		zap.String("enemy", enemy.ID))

	return copyFight(fight), nil
}

// Current returns the fight a character is in
func (a *Arena) Current(characterID string) (*Fight, bool) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	fight, ok := a.fights[characterID]
	if !ok {
		return nil, false
	}
	return copyFight(fight), true
}

// Act performs an action in the character's fight. A successful flee ends it.
func (a *Arena) Act(characterID string, action Action) (*Turn, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	fight, ok := a.fights[characterID]
	if !ok {
		return nil, ErrNotFighting
	}
	enemy := fight.Enemy

	var entry string
	switch action {
	case ActionAttack:
		if dice.Exceeds(a.dice, 0.4) {
			entry = fmt.Sprintf("🗡️ Você atacou %s e acertou!", enemy.Name)
			if dice.Exceeds(a.dice, 0.7) {
				entry += fmt.Sprintf(" %s parece ferido!", enemy.Name)
			}
		} else {
			entry = fmt.Sprintf("❌ Você atacou %s mas errou o golpe!", enemy.Name)
			if dice.Exceeds(a.dice, 0.6) {
				entry += " 🩸 Você sofreu um corte superficial!"
			}
		}

	case ActionDefend:
		entry = fmt.Sprintf("🛡️ Você assume posição defensiva contra %s.", enemy.Name)
		if dice.Exceeds(a.dice, 0.5) {
			entry += " Bloqueou o ataque inimigo!"
		}

	case ActionFlee:
		if dice.Exceeds(a.dice, 0.3) {
			entry = fmt.Sprintf("🏃 Você conseguiu fugir de %s!", enemy.Name)
			fight.Log = append(fight.Log, entry)
			result := a.end(fight, WinnerFlee, false, false)
			return &Turn{Entry: entry, Fight: copyFight(fight), Result: result}, nil
		}
		entry = fmt.Sprintf("❌ %s bloqueou sua fuga!", enemy.Name)

	default:
		return nil, ErrUnknownAction
	}

	fight.Log = append(fight.Log, entry)
	return &Turn{Entry: entry, Fight: copyFight(fight)}, nil
}

// Resolve settles the fight by difficulty and ends it
func (a *Arena) Resolve(characterID string) (*Result, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	fight, ok := a.fights[characterID]
	if !ok {
		return nil, ErrNotFighting
	}

	wins := dice.Chance(a.dice, WinChance(fight.Enemy.Difficulty))
	injured := wins && dice.Exceeds(a.dice, 0.5)
	experience := wins && fight.Enemy.Rewards.Experience

	winner := WinnerEnemy
	if wins {
		winner = WinnerPlayer
	}
	return a.end(fight, winner, injured, experience), nil
}

// Abandon drops the fight of a character without a result. It reports
// whether there was one.
func (a *Arena) Abandon(characterID string) bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	fight, ok := a.fights[characterID]
	if !ok {
		return false
	}
	delete(a.fights, characterID)

	a.logger.Info("Combat abandoned",
		zap.String("character_id", characterID),
		zap.String("enemy", fight.Enemy.ID))
	return true
}

// end closes fight; the caller holds the lock
func (a *Arena) end(fight *Fight, winner Winner, injured, experience bool) *Result {
	name := fight.Enemy.Name
	var description string
	switch winner {
	case WinnerFlee:
		description = "Você fugiu do combate. Escapou com vida, mas sem honra."
	case WinnerPlayer:
		description = fmt.Sprintf("Você derrotou %s!", name)
		if injured {
			description += " Sofreu ferimentos na batalha."
		}
		if experience {
			description += " Aprendeu algo com essa experiência."
		}
	default:
		description = fmt.Sprintf("Você foi derrotado por %s!", name)
		if injured {
			description += " Ficou ferido e precisou de ajuda."
		}
	}

	delete(a.fights, fight.CharacterID)

	a.logger.Info("Combat ended",
		zap.String("character_id", fight.CharacterID),
		zap.String("enemy", fight.Enemy.ID),
		zap.String("winner", string(winner)),
		zap.Bool("injured", injured))

	return &Result{
		Winner:           winner,
		Injured:          injured,
		GainedExperience: experience,
		Description:      description,
	}
}

func copyFight(f *Fight) *Fight {
	out := *f
	out.Log = append([]string(nil), f.Log...)
	return &out
}
