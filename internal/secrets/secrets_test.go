package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/cronicas-do-japao/internal/types"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) RecordSecret(ctx context.Context, discovery types.SecretDiscovery) error {
	args := m.Called(ctx, discovery)
	return args.Error(0)
}

func (m *MockStore) ListSecrets(ctx context.Context, characterID string) ([]types.SecretDiscovery, error) {
	args := m.Called(ctx, characterID)
	return args.Get(0).([]types.SecretDiscovery), args.Error(1)
}

func TestAccessible(t *testing.T) {
	yokai, _ := FindPath("yokai_hunter_path")
	kami, _ := FindPath("kami_shrine_path")
	onmyoji, _ := FindPath("onmyoji_path")
	tsukumogami, _ := FindPath("tsukumogami_path")

	assert.True(t, Accessible(yokai, BaseStanding))
	assert.False(t, Accessible(kami, BaseStanding))
	assert.False(t, Accessible(onmyoji, BaseStanding))
	assert.False(t, Accessible(tsukumogami, BaseStanding))

	assert.True(t, Accessible(tsukumogami, Standing{Perception: 5, Spiritual: 7, Social: 1, Honor: 25}))

	// awakening alone never meets the honor of the other paths
	assert.False(t, Accessible(onmyoji, StandingFor(5, 5)))
	assert.Equal(t, Standing{Perception: 5, Spiritual: 3, Social: 1, Honor: 10}, StandingFor(2, 1))
}

func TestDiscoverAfterTenSteps(t *testing.T) {
	store := new(MockStore)
	ctx := context.Background()
	society := NewSociety(store, nil)

	store.On("ListSecrets", ctx, "c1").Return([]types.SecretDiscovery{}, nil).Once()
	store.On("RecordSecret", ctx, mock.MatchedBy(func(d types.SecretDiscovery) bool {
		return d.CharacterID == "c1" && d.SecretPathID == "yokai_hunter_path"
	})).Return(nil).Once()

	inv, err := society.Begin(ctx, "c1", "yokai_hunter_path", BaseStanding)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Progress)

	for i := 1; i < 10; i++ {
		step, err := society.Progress(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, i*ProgressStep, step.Progress)
		assert.False(t, step.Discovered)
	}

	step, err := society.Progress(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, step.Discovered)
	assert.Equal(t, "Você descobriu o caminho: Caçador de Yōkai!", step.Message)

	_, ok := society.Current("c1")
	assert.False(t, ok)
	store.AssertExpectations(t)
}

func TestDiscoveryWriteFailureRetries(t *testing.T) {
	store := new(MockStore)
	ctx := context.Background()
	society := NewSociety(store, nil)

	store.On("ListSecrets", ctx, "c1").Return([]types.SecretDiscovery{}, nil)
	store.On("RecordSecret", ctx, mock.Anything).Return(errors.New("offline")).Once()
	store.On("RecordSecret", ctx, mock.Anything).Return(nil).Once()

	_, err := society.Begin(ctx, "c1", "yokai_hunter_path", BaseStanding)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		_, err := society.Progress(ctx, "c1")
		require.NoError(t, err)
	}

	_, err = society.Progress(ctx, "c1")
	assert.Error(t, err)
	current, ok := society.Current("c1")
	require.True(t, ok)
	assert.Equal(t, ProgressComplete, current.Progress)

	step, err := society.Progress(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, step.Discovered)
}

func TestBeginRejections(t *testing.T) {
	store := new(MockStore)
	ctx := context.Background()
	society := NewSociety(store, nil)

	_, err := society.Begin(ctx, "c1", "nope", BaseStanding)
	assert.ErrorIs(t, err, ErrUnknownPath)

	_, err = society.Begin(ctx, "c1", "onmyoji_path", BaseStanding)
	assert.ErrorIs(t, err, ErrRequirementsNotMet)

	store.On("ListSecrets", ctx, "c1").Return([]types.SecretDiscovery{{CharacterID: "c1", SecretPathID: "yokai_hunter_path"}}, nil)
	_, err = society.Begin(ctx, "c1", "yokai_hunter_path", BaseStanding)
	assert.ErrorIs(t, err, ErrAlreadyDiscovered)

	paths, err := society.Discovered(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "Caçador de Yōkai", paths[0].Name)

	_, err = society.Progress(ctx, "c1")
	assert.ErrorIs(t, err, ErrNoInvestigation)
	assert.ErrorIs(t, society.Abandon("c1"), ErrNoInvestigation)
}

func TestAbandon(t *testing.T) {
	store := new(MockStore)
	ctx := context.Background()
	society := NewSociety(store, nil)
	store.On("ListSecrets", ctx, "c1").Return([]types.SecretDiscovery{}, nil)

	_, err := society.Begin(ctx, "c1", "yokai_hunter_path", BaseStanding)
	require.NoError(t, err)
	_, err = society.Begin(ctx, "c1", "kami_shrine_path", Standing{Perception: 9, Spiritual: 9, Social: 9, Honor: 99})
	assert.ErrorIs(t, err, ErrAlreadyInvestigating)

	require.NoError(t, society.Abandon("c1"))
	_, ok := society.Current("c1")
	assert.False(t, ok)
}
