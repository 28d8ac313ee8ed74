package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/cronicas-do-japao/internal/dice"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/systems"
	"github.com/user/cronicas-do-japao/internal/types"
)

// MockGameManager is a mock implementation of interfaces.GameManager
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

func newTestServer(src dice.Source) (*MockGameManager, http.Handler, *systems.Systems) {
	games := new(MockGameManager)
	sys := systems.New(nil, src, nil)
	return games, NewServer(games, sys, nil).Router(), sys
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func living() *types.Character {
	return &types.Character{ID: "c1", UserID: "u1", Name: "Takeda", Age: 16, IsAlive: true, Region: "owari"}
}

func TestHealth(t *testing.T) {
	_, h, _ := newTestServer(dice.NewSequence(0.5))
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCreateCharacter(t *testing.T) {
	games, h, _ := newTestServer(dice.NewSequence(0.5))
	games.On("CreateCharacter", mock.Anything, types.NewCharacter{UserID: "u1", Name: "Takeda", Clan: "kai"}).
		Return(living(), nil)

	rec := do(t, h, http.MethodPost, "/characters", `{"user_id":"u1","name":"Takeda","clan":"kai"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got types.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c1", got.ID)

	rec = do(t, h, http.MethodPost, "/characters", `{"name":"Takeda"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/characters", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	games.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	games, h, _ := newTestServer(dice.NewSequence(0.5))
	games.On("GetCharacter", mock.Anything, "missing").Return(nil, game.ErrCharacterNotFound)
	games.On("PendingEvent", mock.Anything, "c1").Return(nil, game.ErrNoPendingEvent)
	games.On("Choose", mock.Anything, "c1", 7).Return(nil, game.ErrInvalidChoice)
	games.On("AdvanceTime", mock.Anything, "c1", 12).
		Return(nil, &game.PersistenceError{Op: game.OpAdvance, Err: errors.New("disk full")})
	games.On("Travel", mock.Anything, "c1", "kofu").Return(nil, game.ErrRegionLocked)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/characters/missing", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/characters/c1/event", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/characters/c1/choices", `{"choice":7}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/characters/c1/choices", `{}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/characters/c1/advance", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/characters/c1/travel", `{"location_id":"kofu"}`).Code)
}

func TestChoose(t *testing.T) {
	games, h, _ := newTestServer(dice.NewSequence(0.5))
	after := living()
	after.Age = 17
	games.On("Choose", mock.Anything, "c1", 0).Return(&types.ChoiceOutcome{Character: after, Year: 1560}, nil)

	rec := do(t, h, http.MethodPost, "/characters/c1/choices", `{"choice":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.ChoiceOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 17, got.Character.Age)
}

func TestListCharactersEmpty(t *testing.T) {
	games, h, _ := newTestServer(dice.NewSequence(0.5))
	games.On("ListCharacters", mock.Anything, "u9").Return(nil, nil)

	rec := do(t, h, http.MethodGet, "/characters?user_id=u9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/characters", "").Code)
}

func TestCombatFlow(t *testing.T) {
	// 0.1 wins every roll against the difficulty 2 thug
	games, h, _ := newTestServer(dice.NewSequence(0.1))
	games.On("GetCharacter", mock.Anything, "c1").Return(living(), nil)

	rec := do(t, h, http.MethodPost, "/characters/c1/combat", `{"enemy_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/characters/c1/combat/resolve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/combat/enemies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var enemies []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enemies))
	require.NotEmpty(t, enemies)

	rec = do(t, h, http.MethodPost, "/characters/c1/combat", `{"enemy_id":"`+enemies[0].ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/characters/c1/combat/actions", `{"action":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/characters/c1/combat/resolve", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeadCharactersCannotAct(t *testing.T) {
	games, h, _ := newTestServer(dice.NewSequence(0.5))
	dead := living()
	dead.IsAlive = false
	games.On("GetCharacter", mock.Anything, "c1").Return(dead, nil)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/characters/c1/secrets", `{"path_id":"yokai_hunter_path"}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/characters/c1/creatures/ghoul_1/investigate", "").Code)
}

func TestDeadCharacterLosesOpenFight(t *testing.T) {
	games, h, sys := newTestServer(dice.NewSequence(0.1))
	dead := living()
	dead.IsAlive = false
	games.On("GetCharacter", mock.Anything, "c1").Return(living(), nil).Once()
	games.On("GetCharacter", mock.Anything, "c1").Return(dead, nil)

	rec := do(t, h, http.MethodPost, "/characters/c1/combat", `{"enemy_id":"thug_1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/characters/c1/combat/actions", `{"action":"attack"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), game.ErrCharacterDeceased.Error())

	rec = do(t, h, http.MethodPost, "/characters/c1/combat/resolve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, fighting := sys.Arena.Current("c1")
	assert.False(t, fighting)
}

func TestDeathDuringAdvanceEndsFight(t *testing.T) {
	games, h, sys := newTestServer(dice.NewSequence(0.1))
	dead := living()
	dead.IsAlive = false
	games.On("AdvanceTime", mock.Anything, "c1", 12).
		Return(&types.AdvanceOutcome{Character: dead, Death: types.DeathCheck{IsDead: true, Reason: game.DeathReasonOldAge}}, nil)

	_, err := sys.Arena.Start("c1", "thug_1")
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/characters/c1/advance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, fighting := sys.Arena.Current("c1")
	assert.False(t, fighting)
}

func TestCatalogs(t *testing.T) {
	_, h, _ := newTestServer(dice.NewSequence(0.5))

	rec := do(t, h, http.MethodGet, "/professions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ferreiro")

	rec = do(t, h, http.MethodGet, "/occult/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "strange_sounds_1")
}

func TestCreatureInvestigation(t *testing.T) {
	games, h, sys := newTestServer(dice.NewSequence(0.5))
	games.On("GetCharacter", mock.Anything, "c1").Return(living(), nil)

	_, err := sys.Creatures.Encounter("c1", "ghoul", "ghoul_1")
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/characters/c1/creatures", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghoul_1")

	rec = do(t, h, http.MethodPost, "/characters/c1/creatures/ghoul_1/investigate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"investigation":10`)

	rec = do(t, h, http.MethodPost, "/characters/c1/creatures/contact_1/investigate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOccultState(t *testing.T) {
	// 0.05 surfaces an event, 0.0 picks the first one
	games, h, sys := newTestServer(dice.NewSequence(0.05, 0.0))
	games.On("GetCharacter", mock.Anything, "c1").Return(living(), nil)
	_, ok := sys.Occult.Tick("c1")
	require.True(t, ok)

	rec := do(t, h, http.MethodGet, "/characters/c1/occult", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"perception":1`)

	rec = do(t, h, http.MethodPost, "/characters/c1/occult/investigate", `{"event_id":"whispers_1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecretPaths(t *testing.T) {
	games, h, _ := newTestServer(dice.NewSequence(0.5))
	games.On("GetCharacter", mock.Anything, "c1").Return(living(), nil)

	rec := do(t, h, http.MethodGet, "/secrets/paths", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yokai_hunter_path")

	rec = do(t, h, http.MethodPost, "/characters/c1/secrets", `{"path_id":"onmyoji_path"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/characters/c1/secrets", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
