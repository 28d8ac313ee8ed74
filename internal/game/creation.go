package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/types"
)

// Creation bounds for capability stats
const (
	BaseStat        = 10
	MinCreationStat = 5
	MaxCreationStat = 20
)

// Default narrative values for new characters
const (
	DefaultClan          = "owari"
	DefaultProfession    = "ferreiro"
	DefaultMaritalStatus = "single"
)

// Stats holds the four capability attributes
type Stats struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`
}

// Profession describes a starting occupation and its stat bonus
type Profession struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Bonus Stats  `json:"bonus"`
}

var professions = []Profession{
	{ID: "ferreiro", Name: "Ferreiro", Bonus: Stats{Strength: 2, Intelligence: 1}},
	{ID: "campones", Name: "Camponês", Bonus: Stats{Strength: 1, Agility: 1}},
	{ID: "mensageiro", Name: "Mensageiro", Bonus: Stats{Agility: 3, Charisma: 1}},
	{ID: "monge_novico", Name: "Monge Noviço", Bonus: Stats{Intelligence: 2, Charisma: 1}},
	{ID: "ronin", Name: "Ronin", Bonus: Stats{Strength: 2, Agility: 2, Charisma: -1}},
	{ID: "artesao", Name: "Artesão", Bonus: Stats{Intelligence: 2, Agility: 1}},
	{ID: "comerciante", Name: "Comerciante", Bonus: Stats{Charisma: 3, Intelligence: 1}},
}

// Professions returns the known starting professions
func Professions() []Profession {
	out := make([]Profession, len(professions))
	copy(out, professions)
	return out
}

// CalculateStats derives starting capabilities from age and profession.
// Unknown professions get no bonus.
func CalculateStats(age int, profession string) Stats {
	stats := Stats{Strength: BaseStat, Agility: BaseStat, Intelligence: BaseStat, Charisma: BaseStat}

	switch {
	case age < 25:
		stats.Agility += 2
		stats.Strength += 1
	case age < 40:
		stats.Strength += 3
		stats.Charisma += 1
	case age < 55:
		stats.Intelligence += 2
		stats.Charisma += 2
	default:
		stats.Intelligence += 3
		stats.Charisma += 1
	}

	for _, p := range professions {
		if p.ID == profession {
			stats.Strength += p.Bonus.Strength
			stats.Agility += p.Bonus.Agility
			stats.Intelligence += p.Bonus.Intelligence
			stats.Charisma += p.Bonus.Charisma
			break
		}
	}

	return Stats{
		Strength:     clamp(stats.Strength, MinCreationStat, MaxCreationStat),
		Agility:      clamp(stats.Agility, MinCreationStat, MaxCreationStat),
		Intelligence: clamp(stats.Intelligence, MinCreationStat, MaxCreationStat),
		Charisma:     clamp(stats.Charisma, MinCreationStat, MaxCreationStat),
	}
}

// NewCharacter builds a living character from a creation request
func NewCharacter(cfg config.GameConfig, req types.NewCharacter) (*types.Character, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	clan := strings.ToLower(strings.TrimSpace(req.Clan))
	if clan == "" {
		clan = DefaultClan
	}
	profession := strings.ToLower(strings.TrimSpace(req.Profession))
	if profession == "" {
		profession = DefaultProfession
	}

	stats := CalculateStats(cfg.StartingAge, profession)
	now := time.Now()

	return &types.Character{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Name:            name,
		Clan:            clan,
		Profession:      profession,
		TravelReason:    strings.TrimSpace(req.TravelReason),
		MaritalStatus:   DefaultMaritalStatus,
		Health:          cfg.StartingHealth,
		Honor:           cfg.StartingHonor,
		Gold:            cfg.StartingGold,
		Strength:        stats.Strength,
		Agility:         stats.Agility,
		Intelligence:    stats.Intelligence,
		Charisma:        stats.Charisma,
		Age:             cfg.StartingAge,
		BirthYear:       cfg.StartingYear - cfg.StartingAge,
		CurrentYear:     cfg.StartingYear,
		IsAlive:         true,
		Region:          clan,
		CurrentLocation: cfg.StartingLocation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
