package game

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ageEventsJSON = `[
  {
    "age": 30,
    "title": "Peregrinação",
    "description": "Um monge convida você a uma peregrinação.",
    "choices": [
      {"text": "Partir", "consequence": "Você parte.", "effects": {"intelligence": 3, "unknown_stat": 9}},
      {"text": "Ficar", "consequence": "Você fica.", "effects": {}}
    ]
  }
]`

func TestLoadAgeEvents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AgeEventsFile), []byte(ageEventsJSON), 0644))

	table, err := NewDataLoader(dir).LoadAgeEvents()
	require.NoError(t, err)
	events := table.Lookup(30)
	require.Len(t, events, 1)
	assert.Equal(t, "Peregrinação", events[0].Title)
	assert.Equal(t, 3, events[0].Choices[0].Effects.Intelligence)
	assert.True(t, events[0].Choices[1].Effects.IsZero())

	merged, err := LoadEventTable(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 20, 25, 30, 35, 50}, merged.Ages())
}

func TestLoadEventTableWithoutOverrides(t *testing.T) {
	table, err := LoadEventTable(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultEventTable().Ages(), table.Ages())

	table, err = LoadEventTable("")
	require.NoError(t, err)
	assert.Len(t, table.Ages(), 5)
}

func TestLoadAgeEventsRejectsEmptyChoices(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AgeEventsFile), []byte(`[{"age": 40, "title": "Vazio"}]`), 0644))
	_, err := LoadEventTable(dir)
	assert.Error(t, err)
}

// MockMessageSender is a mock implementation of interfaces.MessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(recipient, message string) (string, error) {
	args := m.Called(recipient, message)
	return args.String(0), args.Error(1)
}

type fixedOmen struct {
	text string
}

func (f fixedOmen) Omen(string) (string, bool) {
	return f.text, f.text != ""
}

func TestEventSystemTick(t *testing.T) {
	gm, repo := newTestManager(t)
	ctx := context.Background()
	seed(t, repo, testCharacter())

	dead := testCharacter()
	dead.ID = "c2"
	dead.IsAlive = false
	dead.DeathReason = DeathReasonOldAge
	seed(t, repo, dead)

	sender := new(MockMessageSender)
	sender.On("SendMessage", "5521999999999", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "Sons estranhos") && strings.Contains(msg, "Takeda")
	})).Return("msg-1", nil).Once()
	gm.SetMessageSender(sender)
	gm.AddOmenSource(fixedOmen{text: "Sons estranhos ecoam pela noite."})
	gm.AddOmenSource(fixedOmen{})

	gm.Watch("c1", "5521999999999")
	gm.Watch("c2", "5521888888888")
	gm.Watch("missing", "5521777777777")

	gm.eventSys.Tick(ctx)

	sender.AssertExpectations(t)
	watched := gm.watched()
	assert.Len(t, watched, 1)
	assert.Equal(t, "5521999999999", watched["c1"])
}

func TestEventSystemDisabled(t *testing.T) {
	gm, _ := newTestManager(t)
	es := NewEventSystem(gm, 0)
	es.Start()
	assert.False(t, es.running)
	es.Stop()
}
