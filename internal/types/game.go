package types

import "time"

// AgeEvent is a scripted narrative prompt bound to a specific character age
type AgeEvent struct {
	Age         int      `json:"age"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Choices     []Choice `json:"choices"`
}

// ChoiceLabels returns the text of every choice, in order
func (e AgeEvent) ChoiceLabels() []string {
	labels := make([]string, len(e.Choices))
	for i, choice := range e.Choices {
		labels[i] = choice.Text
	}
	return labels
}

// Choice represents a selectable option within an age event
type Choice struct {
	Text        string  `json:"text"`
	Consequence string  `json:"consequence"`
	Effects     Effects `json:"effects"`
}

// Effects is a sparse stat delta. Absent fields mean no change and unknown
// keys in decoded content are ignored.
type Effects struct {
	Health       int `json:"health,omitempty"`
	Honor        int `json:"honor,omitempty"`
	Gold         int `json:"gold,omitempty"`
	Strength     int `json:"strength,omitempty"`
	Agility      int `json:"agility,omitempty"`
	Intelligence int `json:"intelligence,omitempty"`
	Charisma     int `json:"charisma,omitempty"`
}

// IsZero reports whether the delta changes nothing
func (e Effects) IsZero() bool {
	return e == Effects{}
}

// GameEvent is an immutable history record of an age event resolution
type GameEvent struct {
	ID           string    `json:"id"`
	CharacterID  string    `json:"character_id"`
	EventType    string    `json:"event_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Choices      []string  `json:"choices"`
	Consequences []string  `json:"consequences"`
	Year         int       `json:"year"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventTypeAgeEvent marks history records produced by age events
const EventTypeAgeEvent = "age_event"

// SecretDiscovery records a secret path found by a character
type SecretDiscovery struct {
	CharacterID  string    `json:"character_id"`
	SecretPathID string    `json:"secret_path_id"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// MapLocation represents a travel destination on the region map
type MapLocation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Region       string `json:"region"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Description  string `json:"description"`
	IsAccessible bool   `json:"is_accessible"`
}

// TimeOfYear describes the in-game calendar position of a character
type TimeOfYear struct {
	CurrentYear  int    `json:"current_year"`
	Season       string `json:"season"`
	SeasonName   string `json:"season_name"`
	CurrentMonth int    `json:"current_month"`
}

// DeathCheck is the verdict of the death evaluator
type DeathCheck struct {
	IsDead bool   `json:"is_dead"`
	Reason string `json:"reason,omitempty"`
}

// ChoiceOutcome is the result of resolving an age event choice
type ChoiceOutcome struct {
	Character *Character `json:"character"`
	Event     AgeEvent   `json:"event"`
	Choice    Choice     `json:"choice"`
	Death     DeathCheck `json:"death"`
	Year      int        `json:"year"`
	NextEvent *AgeEvent  `json:"next_event,omitempty"`
}

// AdvanceOutcome is the result of an explicit time advance
type AdvanceOutcome struct {
	Character    *Character `json:"character"`
	YearsElapsed int        `json:"years_elapsed"`
	Death        DeathCheck `json:"death"`
	NextEvent    *AgeEvent  `json:"next_event,omitempty"`
}
