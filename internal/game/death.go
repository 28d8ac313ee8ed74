package game

import (
	"github.com/user/cronicas-do-japao/internal/dice"
	"github.com/user/cronicas-do-japao/internal/types"
)

// Death reasons recorded on the character
const (
	DeathReasonOldAge    = "velhice"
	DeathReasonWounds    = "ferimentos"
	DeathReasonIllness   = "doença"
	DeathReasonAccident  = "acidente"
	DeathReasonPoisoning = "envenenamento"
)

// FrailtyAge is the age from which random death becomes possible
const FrailtyAge = 60

// FrailtyPerYear is the death probability added per year past FrailtyAge
const FrailtyPerYear = 0.01

var randomDeathReasons = []string{DeathReasonIllness, DeathReasonAccident, DeathReasonPoisoning}

// RandomDeathReasons returns the reasons the probabilistic branch can pick
func RandomDeathReasons() []string {
	out := make([]string, len(randomDeathReasons))
	copy(out, randomDeathReasons)
	return out
}

// CheckDeath decides whether the character dies this step. Deterministic
// causes are checked before the probabilistic one.
func CheckDeath(character *types.Character, src dice.Source) types.DeathCheck {
	if character.Age >= NaturalLifespan {
		return types.DeathCheck{IsDead: true, Reason: DeathReasonOldAge}
	}

	if character.Health <= 0 {
		return types.DeathCheck{IsDead: true, Reason: DeathReasonWounds}
	}

	if character.Age >= FrailtyAge {
		chance := float64(character.Age-FrailtyAge) * FrailtyPerYear
		if dice.Chance(src, chance) {
			return types.DeathCheck{
				IsDead: true,
				Reason: randomDeathReasons[src.Intn(len(randomDeathReasons))],
			}
		}
	}

	return types.DeathCheck{IsDead: false}
}

// Kill returns a copy of character marked dead for reason
func Kill(character *types.Character, reason string) *types.Character {
	updated := character.Clone()
	updated.IsAlive = false
	updated.DeathReason = reason
	return updated
}
