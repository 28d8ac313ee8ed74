package whatsapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/dice"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/systems"
	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
)

// Mock GameManager for testing
type MockGameManager struct {
	mock.Mock
}

func (m *MockGameManager) CreateCharacter(ctx context.Context, req types.NewCharacter) (*types.Character, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Character), args.Error(1)
}

func (m *MockGameManager) GetCharacter(ctx context.Context, id string) (*types.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Character), args.Error(1)
}

func (m *MockGameManager) ListCharacters(ctx context.Context, userID string) ([]*types.Character, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Character), args.Error(1)
}

func (m *MockGameManager) PendingEvent(ctx context.Context, id string) (*types.AgeEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AgeEvent), args.Error(1)
}

func (m *MockGameManager) Choose(ctx context.Context, id string, choice int) (*types.ChoiceOutcome, error) {
	args := m.Called(ctx, id, choice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ChoiceOutcome), args.Error(1)
}

func (m *MockGameManager) AdvanceTime(ctx context.Context, id string, months int) (*types.AdvanceOutcome, error) {
	args := m.Called(ctx, id, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AdvanceOutcome), args.Error(1)
}

func (m *MockGameManager) CurrentTime(ctx context.Context, id string) (*types.TimeOfYear, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TimeOfYear), args.Error(1)
}

func (m *MockGameManager) History(ctx context.Context, id string) ([]*types.GameEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.GameEvent), args.Error(1)
}

func (m *MockGameManager) Locations() []types.MapLocation {
	args := m.Called()
	return args.Get(0).([]types.MapLocation)
}

func (m *MockGameManager) Travel(ctx context.Context, id, locationID string) (*types.Character, error) {
	args := m.Called(ctx, id, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Character), args.Error(1)
}

func (m *MockGameManager) Watch(characterID, userID string) {
	m.Called(characterID, userID)
}

func (m *MockGameManager) Unwatch(characterID string) {
	m.Called(characterID)
}

const player = "5521999999999"

func newTestClientManager(src dice.Source) (*ClientManager, *MockGameManager) {
	games := new(MockGameManager)
	cm := NewClientManager(games, systems.New(nil, src, nil), config.DefaultConfig(), zap.NewNop())
	return cm, games
}

func samurai() *types.Character {
	return &types.Character{
		ID:              "c1",
		UserID:          player,
		Name:            "Takeda Shingen",
		Clan:            "kai",
		Profession:      "samurai",
		Age:             16,
		CurrentYear:     1560,
		IsAlive:         true,
		Health:          100,
		Honor:           50,
		Region:          "kai",
		CurrentLocation: "Kōfu",
		CreatedAt:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

// playing returns a manager whose player already plays c
func playing(t *testing.T, src dice.Source, c *types.Character) (*ClientManager, *MockGameManager) {
	t.Helper()
	cm, games := newTestClientManager(src)
	cm.active[player] = c.ID
	games.On("GetCharacter", mock.Anything, c.ID).Return(c, nil)
	return cm, games
}

func TestCleanCommand(t *testing.T) {
	assert.Equal(t, "/comecar", cleanCommand(" /Começar "))
	assert.Equal(t, "/avancar", cleanCommand("/AVANÇAR"))
	assert.Equal(t, "/historico", cleanCommand("/histórico"))
}

func TestProcessGameCommandRejectsPlainText(t *testing.T) {
	cm, _ := newTestClientManager(dice.NewSequence(0.5))

	response := cm.processGameCommand(context.Background(), player, "oi")
	assert.Contains(t, response, "Comandos devem começar com '/'")

	response = cm.processGameCommand(context.Background(), player, "/dançar")
	assert.Contains(t, response, "Comando não reconhecido")
}

func TestHelpCommand(t *testing.T) {
	cm, _ := newTestClientManager(dice.NewSequence(0.5))

	response := cm.processGameCommand(context.Background(), player, "/ajuda")
	assert.Contains(t, response, "CRÔNICAS DO JAPÃO")
	assert.Contains(t, response, "/comecar [nome]")
	assert.Contains(t, response, "/escolher [número]")
	assert.Contains(t, response, "/viajar [local]")
	assert.Contains(t, response, "/examinar [encontro]")
}

func TestStartCommand(t *testing.T) {
	cm, games := newTestClientManager(dice.NewSequence(0.5))
	created := samurai()
	games.On("CreateCharacter", mock.Anything, types.NewCharacter{
		UserID:       player,
		Name:         "Takeda Shingen",
		Clan:         "kai",
		Profession:   "samurai",
		TravelReason: "Vingar meu pai",
	}).Return(created, nil)
	games.On("Watch", "c1", player).Return()
	games.On("PendingEvent", mock.Anything, "c1").Return(&types.AgeEvent{
		Age:   16,
		Title: "Primeiro Duelo",
		Choices: []types.Choice{
			{Text: "Aceitar"},
			{Text: "Recusar"},
		},
	}, nil)

	response := cm.processGameCommand(context.Background(), player, "/começar Takeda Shingen | Kai | Samurai | Vingar meu pai")
	assert.Contains(t, response, "Bem-vindo às *Crônicas do Japão*, Takeda Shingen!")
	assert.Contains(t, response, "Primeiro Duelo")
	assert.Contains(t, response, "*/a* 1. Aceitar")
	assert.Equal(t, "c1", cm.activeID(player))

	response = cm.processGameCommand(context.Background(), player, "/comecar")
	assert.Contains(t, response, "você esqueceu seu nome")

	games.AssertExpectations(t)
}

func TestStatusFallsBackToLatestLivingCharacter(t *testing.T) {
	cm, games := newTestClientManager(dice.NewSequence(0.5))

	older := samurai()
	dead := samurai()
	dead.ID, dead.Name, dead.IsAlive = "c0", "Oda", false
	dead.CreatedAt = older.CreatedAt.Add(time.Hour)
	newer := samurai()
	newer.ID, newer.Name = "c2", "Uesugi Kenshin"
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)

	games.On("ListCharacters", mock.Anything, player).Return([]*types.Character{older, dead, newer}, nil)
	games.On("Watch", "c2", player).Return()

	response := cm.processGameCommand(context.Background(), player, "/status")
	assert.Contains(t, response, "Uesugi Kenshin")
	assert.Contains(t, response, "Honra: 50/100")
	assert.Equal(t, "c2", cm.activeID(player))
	games.AssertExpectations(t)
}

func TestCommandsWithoutCharacter(t *testing.T) {
	cm, games := newTestClientManager(dice.NewSequence(0.5))
	games.On("ListCharacters", mock.Anything, player).Return([]*types.Character{}, nil)

	response := cm.processGameCommand(context.Background(), player, "/evento")
	assert.Contains(t, response, "Você ainda não tem um personagem vivo")

	response = cm.processGameCommand(context.Background(), player, "/personagens")
	assert.Contains(t, response, "Você ainda não tem personagens")
}

func TestPlayCommand(t *testing.T) {
	cm, games := newTestClientManager(dice.NewSequence(0.5))
	first := samurai()
	second := samurai()
	second.ID, second.Name = "c2", "Uesugi Kenshin"
	games.On("ListCharacters", mock.Anything, player).Return([]*types.Character{first, second}, nil)
	games.On("Watch", "c2", player).Return()

	response := cm.processGameCommand(context.Background(), player, "/jogar 2")
	assert.Contains(t, response, "Você agora joga com *Uesugi Kenshin*")
	assert.Equal(t, "c2", cm.activeID(player))

	response = cm.processGameCommand(context.Background(), player, "/jogar 5")
	assert.Contains(t, response, "Escolha entre 1 e 2")

	response = cm.processGameCommand(context.Background(), player, "/personagens")
	assert.Contains(t, response, "2. Uesugi Kenshin (16 anos) ⭐")
}

func TestChoiceCommands(t *testing.T) {
	c := samurai()
	cm, games := playing(t, dice.NewSequence(0.5), c)

	after := samurai()
	after.Age = 17
	after.CurrentYear = 1561
	games.On("Choose", mock.Anything, "c1", 1).Return(&types.ChoiceOutcome{
		Character: after,
		Event:     types.AgeEvent{Title: "Primeiro Duelo"},
		Choice: types.Choice{
			Text:        "Recusar",
			Consequence: "Você evita o duelo.",
			Effects:     types.Effects{Honor: -5},
		},
		Year: 1560,
	}, nil)
	games.On("Choose", mock.Anything, "c1", 2).Return(nil, game.ErrInvalidChoice)

	response := cm.processGameCommand(context.Background(), player, "/b")
	assert.Contains(t, response, "Você evita o duelo.")
	assert.Contains(t, response, "Honra -5")
	assert.Contains(t, response, "tem agora 17 anos (1561)")

	response = cm.processGameCommand(context.Background(), player, "/escolher 3")
	assert.Contains(t, response, "Escolha inválida")

	response = cm.processGameCommand(context.Background(), player, "/escolher")
	assert.Contains(t, response, "/escolher [número]")
	games.AssertExpectations(t)
}

func TestChoiceReportsDeath(t *testing.T) {
	c := samurai()
	cm, games := playing(t, dice.NewSequence(0.5), c)

	dead := samurai()
	dead.IsAlive = false
	dead.DeathReason = game.DeathReasonIllness
	games.On("Choose", mock.Anything, "c1", 0).Return(&types.ChoiceOutcome{
		Character: dead,
		Event:     types.AgeEvent{Title: "Peste"},
		Choice:    types.Choice{Consequence: "A febre não cede."},
		Death:     types.DeathCheck{IsDead: true, Reason: game.DeathReasonIllness},
	}, nil)

	_, err := cm.systems.Arena.Start("c1", "thug_1")
	require.NoError(t, err)

	response := cm.processGameCommand(context.Background(), player, "/a")
	assert.Contains(t, response, "faleceu aos 16 anos por "+game.DeathReasonIllness)
	assert.NotContains(t, response, "Um ano se passou")

	_, fighting := cm.systems.Arena.Current("c1")
	assert.False(t, fighting)
}

func TestAdvanceCommand(t *testing.T) {
	c := samurai()
	cm, games := playing(t, dice.NewSequence(0.5), c)

	after := samurai()
	after.Age = 18
	games.On("AdvanceTime", mock.Anything, "c1", 12).Return(&types.AdvanceOutcome{Character: after, YearsElapsed: 1}, nil)
	games.On("AdvanceTime", mock.Anything, "c1", 3).Return(&types.AdvanceOutcome{Character: c}, nil)
	games.On("AdvanceTime", mock.Anything, "c1", -1).Return(nil, game.ErrInvalidDuration)
	games.On("AdvanceTime", mock.Anything, "c1", 24).
		Return(nil, &game.PersistenceError{Op: game.OpAdvance, Err: errors.New("disk full")})

	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/avançar"), "1 ano(s) se passaram")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/avancar 3"), "Alguns meses se passaram")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/avancar -1"), "O tempo não volta atrás")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/avancar 24"), "nada mudou")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/avancar muito"), "/avancar [meses]")
	games.AssertExpectations(t)
}

func TestTravelCommands(t *testing.T) {
	c := samurai()
	cm, games := playing(t, dice.NewSequence(0.5), c)

	games.On("Locations").Return(game.Locations())
	moved := samurai()
	moved.Region = "musashi"
	moved.CurrentLocation = "Edo"
	games.On("Travel", mock.Anything, "c1", "edo").Return(moved, nil)
	games.On("Travel", mock.Anything, "c1", "kasugayama").Return(nil, game.ErrRegionLocked)

	response := cm.processGameCommand(context.Background(), player, "/mapa")
	assert.Contains(t, response, "MAPA")
	assert.Contains(t, response, "🚫")

	response = cm.processGameCommand(context.Background(), player, "/viajar Edo")
	assert.Contains(t, response, "chegou a Edo")

	response = cm.processGameCommand(context.Background(), player, "/viajar kasugayama")
	assert.Contains(t, response, "Você só pode viajar dentro de sua província")
}

func TestHistoryCommand(t *testing.T) {
	c := samurai()
	cm, games := playing(t, dice.NewSequence(0.5), c)

	var history []*types.GameEvent
	for i := 0; i < 12; i++ {
		history = append(history, &types.GameEvent{
			Title:        "Evento",
			Year:         1560 + i,
			Consequences: []string{"consequência"},
		})
	}
	games.On("History", mock.Anything, "c1").Return(history, nil)

	response := cm.processGameCommand(context.Background(), player, "/historico")
	assert.NotContains(t, response, "*1561*")
	assert.Contains(t, response, "*1562* Evento: consequência")
	assert.Contains(t, response, "*1571*")
}

func TestCombatCommands(t *testing.T) {
	// 0.1 wins every roll against the difficulty 2 thug
	c := samurai()
	cm, _ := playing(t, dice.NewSequence(0.1), c)

	response := cm.processGameCommand(context.Background(), player, "/atacar")
	assert.Contains(t, response, "Você não está em combate")

	response = cm.processGameCommand(context.Background(), player, "/combate ninja_99")
	assert.Contains(t, response, "Inimigo desconhecido")

	response = cm.processGameCommand(context.Background(), player, "/combate thug_1")
	assert.Contains(t, response, "bloqueia seu caminho")

	response = cm.processGameCommand(context.Background(), player, "/combate guard_1")
	assert.Contains(t, response, "Você já está em combate")

	response = cm.processGameCommand(context.Background(), player, "/combate")
	assert.Contains(t, response, "Vitória")

	_, fighting := cm.systems.Arena.Current("c1")
	assert.False(t, fighting)
}

func TestCreatureCommands(t *testing.T) {
	c := samurai()
	cm, _ := playing(t, dice.NewSequence(0.5), c)

	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/criaturas"), "Nada de estranho")

	_, err := cm.systems.Creatures.Encounter("c1", "ghoul", "ghoul_1")
	require.NoError(t, err)

	response := cm.processGameCommand(context.Background(), player, "/criaturas")
	assert.Contains(t, response, "ghoul_1")

	response = cm.processGameCommand(context.Background(), player, "/examinar ghoul_1")
	assert.Contains(t, response, "10%")

	response = cm.processGameCommand(context.Background(), player, "/examinar contact_1")
	assert.Contains(t, response, "Nenhum encontro com este nome")
}

func TestDeadCharacterCannotAct(t *testing.T) {
	c := samurai()
	c.IsAlive = false
	c.DeathReason = game.DeathReasonOldAge
	cm, _ := playing(t, dice.NewSequence(0.5), c)

	_, err := cm.systems.Creatures.Encounter("c1", "ghoul", "ghoul_1")
	require.NoError(t, err)

	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/examinar ghoul_1"), "já faleceu")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/combate thug_1"), "já faleceu")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/pesquisar"), "já faleceu")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/status"), "Faleceu aos 16 anos")
}

func TestDeadCharacterLosesOpenFight(t *testing.T) {
	c := samurai()
	cm, _ := playing(t, dice.NewSequence(0.1), c)

	response := cm.processGameCommand(context.Background(), player, "/combate thug_1")
	require.Contains(t, response, "bloqueia seu caminho")

	c.IsAlive = false
	c.DeathReason = game.DeathReasonIllness

	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/atacar"), "já faleceu")
	assert.Contains(t, cm.processGameCommand(context.Background(), player, "/combate"), "já faleceu")

	_, fighting := cm.systems.Arena.Current("c1")
	assert.False(t, fighting)
}

func TestPlayStopsOmensOfPreviousCharacter(t *testing.T) {
	c := samurai()
	cm, games := playing(t, dice.NewSequence(0.5), c)
	second := samurai()
	second.ID, second.Name = "c2", "Uesugi Kenshin"
	games.On("ListCharacters", mock.Anything, player).Return([]*types.Character{c, second}, nil)
	games.On("Unwatch", "c1").Return().Once()
	games.On("Watch", "c2", player).Return()
	games.On("Watch", "c1", player).Return()
	games.On("Unwatch", "c2").Return().Once()

	response := cm.processGameCommand(context.Background(), player, "/jogar 2")
	assert.Contains(t, response, "Você agora joga com *Uesugi Kenshin*")

	response = cm.processGameCommand(context.Background(), player, "/jogar 1")
	assert.Contains(t, response, "Você agora joga com *Takeda Shingen*")

	// picking the active character again changes nothing
	cm.processGameCommand(context.Background(), player, "/jogar 1")
	games.AssertExpectations(t)
	games.AssertNumberOfCalls(t, "Unwatch", 2)
}

func TestProfessionsCommand(t *testing.T) {
	cm, _ := newTestClientManager(dice.NewSequence(0.5))

	response := cm.processGameCommand(context.Background(), player, "/profissões")
	assert.Contains(t, response, "PROFISSÕES")
	assert.Contains(t, response, "*Ferreiro* (`ferreiro`) Força +2 | Inteligência +1")
}

func TestSecretCommands(t *testing.T) {
	c := samurai()
	cm, _ := playing(t, dice.NewSequence(0.5), c)

	response := cm.processGameCommand(context.Background(), player, "/caminhos")
	assert.Contains(t, response, "CAMINHOS SECRETOS")
	assert.Contains(t, response, "yokai_hunter_path")

	response = cm.processGameCommand(context.Background(), player, "/caminho onmyoji_path")
	assert.Contains(t, response, "Você ainda não está pronto")

	response = cm.processGameCommand(context.Background(), player, "/pesquisar")
	assert.Contains(t, response, "Você não investiga nenhum caminho")
}

func TestOccultCommands(t *testing.T) {
	// 0.05 surfaces an event, 0.0 picks the first one
	c := samurai()
	cm, _ := playing(t, dice.NewSequence(0.05, 0.0), c)

	_, ok := cm.systems.Occult.Tick("c1")
	require.True(t, ok)

	response := cm.processGameCommand(context.Background(), player, "/oculto")
	assert.Contains(t, response, "Percepção: 1")
	assert.Contains(t, response, "strange_sounds_1")

	response = cm.processGameCommand(context.Background(), player, "/investigar whispers_1")
	assert.Contains(t, response, "Você não presenciou este fenômeno")
}

func TestSendMessageWithoutClient(t *testing.T) {
	cm, _ := newTestClientManager(dice.NewSequence(0.5))

	_, err := cm.SendMessage(player, "olá")
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID(player)
	require.NoError(t, err)
	assert.Equal(t, player, jid.User)
	assert.Equal(t, "s.whatsapp.net", jid.Server)
}
