package game

import "github.com/user/cronicas-do-japao/internal/types"

// Stat bounds applied whenever a choice changes a character
const (
	VitalMin      = 0
	VitalMax      = 100
	GoldMin       = 0
	CapabilityMin = 1
)

// ApplyChoice returns a copy of character with the choice's deltas applied and
// clamped. It never fails and never touches the store.
func ApplyChoice(character *types.Character, choice types.Choice) *types.Character {
	return ApplyEffects(character, choice.Effects)
}

// ApplyEffects returns a copy of character with effects applied and clamped
func ApplyEffects(character *types.Character, effects types.Effects) *types.Character {
	updated := character.Clone()
	updated.Health = clamp(character.Health+effects.Health, VitalMin, VitalMax)
	updated.Honor = clamp(character.Honor+effects.Honor, VitalMin, VitalMax)
	updated.Gold = atLeast(character.Gold+effects.Gold, GoldMin)
	updated.Strength = atLeast(character.Strength+effects.Strength, CapabilityMin)
	updated.Agility = atLeast(character.Agility+effects.Agility, CapabilityMin)
	updated.Intelligence = atLeast(character.Intelligence+effects.Intelligence, CapabilityMin)
	updated.Charisma = atLeast(character.Charisma+effects.Charisma, CapabilityMin)
	return updated
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func atLeast(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}
