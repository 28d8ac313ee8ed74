package game

import "github.com/user/cronicas-do-japao/internal/types"

// NaturalLifespan is the age at which a character dies unconditionally
const NaturalLifespan = 80

// MonthsPerYear converts elapsed months into whole years
const MonthsPerYear = 12

var seasons = []string{"spring", "summer", "autumn", "winter"}

var seasonNames = map[string]string{
	"spring": "Primavera",
	"summer": "Verão",
	"autumn": "Outono",
	"winter": "Inverno",
}

// Advance moves the character's clock forward by whole years. Partial years
// are dropped. Reaching the natural lifespan kills the character of old age,
// replacing any earlier reason.
func Advance(character *types.Character, months int) *types.Character {
	years := months / MonthsPerYear
	updated := character.Clone()
	updated.CurrentYear = character.CurrentYear + years
	updated.Age = character.Age + years
	updated.IsAlive = updated.Age < NaturalLifespan
	if updated.Age >= NaturalLifespan {
		updated.DeathReason = DeathReasonOldAge
	}
	return updated
}

// CurrentTime reports the calendar position of the character
func CurrentTime(character *types.Character) types.TimeOfYear {
	yearsPassed := character.CurrentYear - character.BirthYear
	season := Season(yearsPassed)
	return types.TimeOfYear{
		CurrentYear:  character.CurrentYear,
		Season:       season,
		SeasonName:   SeasonName(season),
		CurrentMonth: mod(yearsPassed, 12) + 1,
	}
}

// Season returns the season for a number of elapsed years
func Season(yearsPassed int) string {
	return seasons[mod(yearsPassed, len(seasons))]
}

// SeasonName returns the display name of a season
func SeasonName(season string) string {
	return seasonNames[season]
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
