package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCharacter() *Character {
	return &Character{
		ID:              "c1",
		Name:            "Hanzo",
		Health:          100,
		Honor:           50,
		Gold:            10,
		Strength:        13,
		Agility:         12,
		Intelligence:    11,
		Charisma:        10,
		Age:             16,
		BirthYear:       1544,
		CurrentYear:     1560,
		IsAlive:         true,
		Region:          "owari",
		CurrentLocation: "Vila de origem",
	}
}

func TestDiffCharactersOnlyChangedFields(t *testing.T) {
	before := sampleCharacter()
	after := before.Clone()
	after.Strength = 18
	after.IsAlive = false
	after.DeathReason = "ferimentos"

	patch := DiffCharacters(before, after)
	require.NotNil(t, patch.Strength)
	assert.Equal(t, 18, *patch.Strength)
	require.NotNil(t, patch.IsAlive)
	assert.False(t, *patch.IsAlive)
	require.NotNil(t, patch.DeathReason)
	assert.Equal(t, "ferimentos", *patch.DeathReason)

	assert.Nil(t, patch.Health)
	assert.Nil(t, patch.Age)
	assert.Nil(t, patch.Region)
}

func TestDiffOfIdenticalCharactersIsEmpty(t *testing.T) {
	before := sampleCharacter()
	assert.True(t, DiffCharacters(before, before.Clone()).IsEmpty())
}

func TestPatchApplyToReproducesTarget(t *testing.T) {
	before := sampleCharacter()
	after := before.Clone()
	after.Age = 17
	after.CurrentYear = 1561
	after.Gold = 0
	after.Region = "kai"
	after.SecretPath = "kami_shrine_path"

	patched := before.Clone()
	DiffCharacters(before, after).ApplyTo(patched)
	assert.Equal(t, after, patched)
}

func TestCloneIsIndependent(t *testing.T) {
	c := sampleCharacter()
	clone := c.Clone()
	clone.Health = 1
	assert.Equal(t, 100, c.Health)

	var nilChar *Character
	assert.Nil(t, nilChar.Clone())
}

func TestAgeEventChoiceLabels(t *testing.T) {
	event := AgeEvent{Choices: []Choice{{Text: "a"}, {Text: "b"}}}
	assert.Equal(t, []string{"a", "b"}, event.ChoiceLabels())
	assert.True(t, Effects{}.IsZero())
	assert.False(t, Effects{Gold: 1}.IsZero())
}
