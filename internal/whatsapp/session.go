package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/user/cronicas-do-japao/config"
	"go.uber.org/zap"
)

// QRCodeManager pairs new devices through QR codes and manages the stored
// sessions
type QRCodeManager struct {
	*SessionManager
	clientManager *ClientManager
	config        config.Config
	logger        *zap.Logger
}

// NewQRCodeManager creates a new QR code manager
func NewQRCodeManager(clientManager *ClientManager, cfg config.Config, logger *zap.Logger) *QRCodeManager {
	return &QRCodeManager{
		SessionManager: NewSessionManager(cfg.WhatsApp.StoreDir, logger),
		clientManager:  clientManager,
		config:         cfg,
		logger:         logger,
	}
}

// GenerateQRCode starts a pairing and returns the code to scan. A PNG of the
// code is written under the store directory.
func (qm *QRCodeManager) GenerateQRCode(ctx context.Context, sessionID, phoneNumber string) (string, error) {
	client, exists := qm.clientManager.GetClient(phoneNumber)
	if !exists {
		var err error
		client, err = qm.clientManager.SetupClient(sessionID, phoneNumber)
		if err != nil {
			return "", fmt.Errorf("failed to set up client: %w", err)
		}
	}

	if client.IsLoggedIn() {
		return "", fmt.Errorf("client already logged in")
	}

	// the channel outlives the request while the device waits to be scanned
	qrChan, err := client.GetQRChannel(context.Background())
	if err != nil {
		return "", fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}

	qrDir := filepath.Join(qm.config.WhatsApp.StoreDir, "qrcodes")
	if err := os.MkdirAll(qrDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create QR code directory: %w", err)
	}

	timeout := time.Duration(qm.config.WhatsApp.QRTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	select {
	case evt := <-qrChan:
		if evt.Event != "code" {
			return "", fmt.Errorf("unexpected QR event: %s", evt.Event)
		}
		qrPath := filepath.Join(qrDir, fmt.Sprintf("%s_%s.png", phoneNumber, sessionID))
		if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 256, qrPath); err != nil {
			return "", fmt.Errorf("failed to generate QR code image: %w", err)
		}

		qm.logger.Info("QR code generated",
			zap.String("phone_number", phoneNumber),
			zap.String("session_id", sessionID),
			zap.String("path", qrPath))

		return evt.Code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(timeout):
		return "", fmt.Errorf("timeout waiting for QR code")
	}
}

// DeleteSession disconnects the device and removes its stored session
func (qm *QRCodeManager) DeleteSession(phoneNumber, sessionID string) error {
	if err := qm.clientManager.Disconnect(phoneNumber); err != nil {
		qm.logger.Debug("No connected client for session", zap.String("phone_number", phoneNumber))
	}
	return qm.SessionManager.DeleteSession(phoneNumber, sessionID)
}

// SessionManager handles WhatsApp session files
type SessionManager struct {
	storeDir string
	logger   *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(storeDir string, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		storeDir: storeDir,
		logger:   logger,
	}
}

// SessionInfo holds information about a WhatsApp session
type SessionInfo struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type sessionFile struct {
	SessionInfo
	path    string
	modTime time.Time
}

// scanSessionFiles lists the device stores named store_<phone>_<session>.db
func scanSessionFiles(storeDir string) ([]sessionFile, error) {
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(storeDir, "store_*.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	var out []sessionFile
	for _, match := range matches {
		parts := strings.SplitN(strings.TrimSuffix(filepath.Base(match), ".db"), "_", 3)
		if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
			continue
		}
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		out = append(out, sessionFile{
			SessionInfo: SessionInfo{ID: parts[2], PhoneNumber: parts[1], UpdatedAt: info.ModTime()},
			path:        match,
			modTime:     info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

// ListSessions returns all stored WhatsApp sessions
func (sm *SessionManager) ListSessions() ([]SessionInfo, error) {
	files, err := scanSessionFiles(sm.storeDir)
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionInfo, 0, len(files))
	for _, f := range files {
		sessions = append(sessions, f.SessionInfo)
	}
	return sessions, nil
}

// DeleteSession removes a WhatsApp session and its QR code
func (sm *SessionManager) DeleteSession(phoneNumber, sessionID string) error {
	dbPath := filepath.Join(sm.storeDir, fmt.Sprintf("store_%s_%s.db", phoneNumber, sessionID))
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session database: %w", err)
	}

	qrPath := filepath.Join(sm.storeDir, "qrcodes", fmt.Sprintf("%s_%s.png", phoneNumber, sessionID))
	if err := os.Remove(qrPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete QR code: %w", err)
	}

	sm.logger.Info("Session deleted",
		zap.String("phone_number", phoneNumber),
		zap.String("session_id", sessionID))
	return nil
}
