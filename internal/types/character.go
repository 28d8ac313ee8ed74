package types

import "time"

// Character represents the player's persistent life-simulation entity
type Character struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	// Origin and narrative
	Clan          string `json:"clan"`
	Profession    string `json:"profession"`
	TravelReason  string `json:"travel_reason"`
	MaritalStatus string `json:"marital_status"`
	ChildrenCount int    `json:"children_count"`

	// Vital attributes
	Health int `json:"health"`
	Honor  int `json:"honor"`
	Gold   int `json:"gold"`

	// Capability attributes
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`

	// Life system
	Age         int    `json:"age"`
	BirthYear   int    `json:"birth_year"`
	CurrentYear int    `json:"current_year"`
	IsAlive     bool   `json:"is_alive"`
	DeathReason string `json:"death_reason,omitempty"`

	// Location
	Region          string `json:"region"`
	CurrentLocation string `json:"current_location"`

	// Secret society path, empty until one is discovered
	SecretPath string `json:"secret_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the character
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// NewCharacter holds the player supplied fields of a character creation request
type NewCharacter struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Clan         string `json:"clan"`
	Profession   string `json:"profession"`
	TravelReason string `json:"travel_reason"`
}

// CharacterPatch is a partial character update. Nil fields are left untouched.
type CharacterPatch struct {
	Health          *int    `json:"health,omitempty"`
	Honor           *int    `json:"honor,omitempty"`
	Gold            *int    `json:"gold,omitempty"`
	Strength        *int    `json:"strength,omitempty"`
	Agility         *int    `json:"agility,omitempty"`
	Intelligence    *int    `json:"intelligence,omitempty"`
	Charisma        *int    `json:"charisma,omitempty"`
	Age             *int    `json:"age,omitempty"`
	CurrentYear     *int    `json:"current_year,omitempty"`
	IsAlive         *bool   `json:"is_alive,omitempty"`
	DeathReason     *string `json:"death_reason,omitempty"`
	Region          *string `json:"region,omitempty"`
	CurrentLocation *string `json:"current_location,omitempty"`
	SecretPath      *string `json:"secret_path,omitempty"`
}

// DiffCharacters returns the patch that turns before into after
func DiffCharacters(before, after *Character) CharacterPatch {
	var p CharacterPatch
	diffInt(&p.Health, before.Health, after.Health)
	diffInt(&p.Honor, before.Honor, after.Honor)
	diffInt(&p.Gold, before.Gold, after.Gold)
	diffInt(&p.Strength, before.Strength, after.Strength)
	diffInt(&p.Agility, before.Agility, after.Agility)
	diffInt(&p.Intelligence, before.Intelligence, after.Intelligence)
	diffInt(&p.Charisma, before.Charisma, after.Charisma)
	diffInt(&p.Age, before.Age, after.Age)
	diffInt(&p.CurrentYear, before.CurrentYear, after.CurrentYear)
	if before.IsAlive != after.IsAlive {
		alive := after.IsAlive
		p.IsAlive = &alive
	}
	diffString(&p.DeathReason, before.DeathReason, after.DeathReason)
	diffString(&p.Region, before.Region, after.Region)
	diffString(&p.CurrentLocation, before.CurrentLocation, after.CurrentLocation)
	diffString(&p.SecretPath, before.SecretPath, after.SecretPath)
	return p
}

func diffInt(dst **int, before, after int) {
	if before != after {
		v := after
		*dst = &v
	}
}

func diffString(dst **string, before, after string) {
	if before != after {
		v := after
		*dst = &v
	}
}

// IsEmpty reports whether the patch changes nothing
func (p CharacterPatch) IsEmpty() bool {
	return p == CharacterPatch{}
}

// ApplyTo writes every set field of the patch onto c
func (p CharacterPatch) ApplyTo(c *Character) {
	setInt(&c.Health, p.Health)
	setInt(&c.Honor, p.Honor)
	setInt(&c.Gold, p.Gold)
	setInt(&c.Strength, p.Strength)
	setInt(&c.Agility, p.Agility)
	setInt(&c.Intelligence, p.Intelligence)
	setInt(&c.Charisma, p.Charisma)
	setInt(&c.Age, p.Age)
	setInt(&c.CurrentYear, p.CurrentYear)
	if p.IsAlive != nil {
		c.IsAlive = *p.IsAlive
	}
	setString(&c.DeathReason, p.DeathReason)
	setString(&c.Region, p.Region)
	setString(&c.CurrentLocation, p.CurrentLocation)
	setString(&c.SecretPath, p.SecretPath)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
