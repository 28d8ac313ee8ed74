// Package systems bundles the in-memory mini-systems shared by the front-ends.
package systems

import (
	"github.com/user/cronicas-do-japao/internal/combat"
	"github.com/user/cronicas-do-japao/internal/creatures"
	"github.com/user/cronicas-do-japao/internal/dice"
	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/occult"
	"github.com/user/cronicas-do-japao/internal/secrets"
	"go.uber.org/zap"
)

// Systems holds one instance of every mini-system
type Systems struct {
	Arena     *combat.Arena
	Occult    *occult.Tracker
	Society   *secrets.Society
	Creatures *creatures.Tracker
}

// New creates the mini-systems rolling on src and recording secret
// discoveries in store
func New(store secrets.Store, src dice.Source, logger *zap.Logger) *Systems {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Systems{
		Arena:     combat.NewArena(src, logger.Named("combat")),
		Occult:    occult.NewTracker(src, logger.Named("occult")),
		Society:   secrets.NewSociety(store, logger.Named("secrets")),
		Creatures: creatures.NewTracker(src, logger.Named("creatures")),
	}
}

// OmenSources returns the trackers that surface periodic omens
func (s *Systems) OmenSources() []interfaces.OmenSource {
	return []interfaces.OmenSource{s.Occult, s.Creatures}
}

// Standing is what a character brings to a secret path's requirements
func (s *Systems) Standing(characterID string) secrets.Standing {
	state := s.Occult.State(characterID)
	return secrets.StandingFor(state.Perception, state.SpiritualResistance)
}
