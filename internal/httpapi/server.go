// Package httpapi exposes the game over a JSON REST API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/systems"
	"github.com/user/cronicas-do-japao/internal/whatsapp"
	"go.uber.org/zap"
)

// Pairing links chat devices to the server
type Pairing interface {
	GenerateQRCode(ctx context.Context, sessionID, phoneNumber string) (string, error)
	ListSessions() ([]whatsapp.SessionInfo, error)
	DeleteSession(phoneNumber, sessionID string) error
}

// Server serves the REST API
type Server struct {
	games   interfaces.GameManager
	systems *systems.Systems
	pairing Pairing
	logger  *zap.Logger
}

// NewServer creates an API server
func NewServer(games interfaces.GameManager, sys *systems.Systems, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{games: games, systems: sys, logger: logger}
}

// SetPairing enables the chat pairing endpoints
func (s *Server) SetPairing(p Pairing) {
	s.pairing = p
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	router.Get("/professions", s.handleProfessions)
	router.Get("/map/locations", s.handleLocations)
	router.Get("/combat/enemies", s.handleEnemies)
	router.Get("/occult/events", s.handleOccultEvents)
	router.Get("/secrets/paths", s.handleSecretPaths)

	router.Route("/characters", func(r chi.Router) {
		r.Post("/", s.handleCreateCharacter)
		r.Get("/", s.handleListCharacters)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetCharacter)
			r.Get("/event", s.handlePendingEvent)
			r.Post("/choices", s.handleChoose)
			r.Post("/advance", s.handleAdvance)
			r.Get("/time", s.handleTime)
			r.Get("/history", s.handleHistory)
			r.Post("/travel", s.handleTravel)

			r.Post("/combat", s.handleStartCombat)
			r.Post("/combat/actions", s.handleCombatAction)
			r.Post("/combat/resolve", s.handleResolveCombat)

			r.Get("/occult", s.handleOccultState)
			r.Post("/occult/investigate", s.handleOccultInvestigate)

			r.Get("/secrets", s.handleSecrets)
			r.Post("/secrets", s.handleBeginSecret)
			r.Post("/secrets/progress", s.handleSecretProgress)
			r.Delete("/secrets", s.handleAbandonSecret)

			r.Get("/creatures", s.handleCreatures)
			r.Post("/creatures/{encounter}/investigate", s.handleCreatureInvestigate)
		})
	})

	if s.pairing != nil {
		router.Post("/whatsapp/qr", s.handleQRCode)
		router.Get("/whatsapp/sessions", s.handleSessions)
		router.Delete("/whatsapp/sessions/{phone_number}/{session_id}", s.handleDeleteSession)
	}

	return router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
