package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver for the device store
	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/systems"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// ErrNoClient is returned when no connected device can deliver a message
var ErrNoClient = errors.New("no whatsapp client available")

// ClientManager handles WhatsApp client connections and routes player
// commands to the game
type ClientManager struct {
	clients map[string]*ClientInfo
	games   interfaces.GameManager
	systems *systems.Systems
	config  config.Config
	logger  *zap.Logger
	mutex   sync.RWMutex

	// active maps a player's phone number to the character they play
	active     map[string]string
	activeLock sync.RWMutex
}

// ClientInfo holds information about a WhatsApp client connection
type ClientInfo struct {
	UUID        string
	PhoneNumber string
	Client      *whatsmeow.Client
	Store       *store.Device
}

var _ interfaces.MessageSender = (*ClientManager)(nil)

// NewClientManager creates a new WhatsApp client manager
func NewClientManager(games interfaces.GameManager, sys *systems.Systems, cfg config.Config, logger *zap.Logger) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientManager{
		clients: make(map[string]*ClientInfo),
		games:   games,
		systems: sys,
		config:  cfg,
		logger:  logger,
		active:  make(map[string]string),
	}
}

func (cm *ClientManager) storePath(phoneNumber, sessionID string) string {
	return filepath.Join(cm.config.WhatsApp.StoreDir, fmt.Sprintf("store_%s_%s.db", phoneNumber, sessionID))
}

func (cm *ClientManager) openDevice(path string, create bool) (*store.Device, error) {
	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New("sqlite3", "file:"+path+"?_foreign_keys=on", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice()
	if err != nil {
		if !create {
			return nil, err
		}
		deviceStore = container.NewDevice()
	}
	return deviceStore, nil
}

func (cm *ClientManager) newClient(deviceStore *store.Device) *whatsmeow.Client {
	store.DeviceProps.Os = proto.String(cm.config.WhatsApp.ClientName)

	clientLog := waLog.Stdout("Client", "ERROR", true)
	client := whatsmeow.NewClient(deviceStore, clientLog)
	client.AddEventHandler(cm.handleWhatsAppEvent)
	return client
}

// RestoreSessions reconnects the most recent stored session of every phone
// number and removes the older ones
func (cm *ClientManager) RestoreSessions() error {
	sessions, err := scanSessionFiles(cm.config.WhatsApp.StoreDir)
	if err != nil {
		return err
	}

	latest := make(map[string]sessionFile)
	for _, s := range sessions {
		if current, ok := latest[s.PhoneNumber]; !ok || s.modTime.After(current.modTime) {
			latest[s.PhoneNumber] = s
		}
	}

	for _, s := range sessions {
		if keep := latest[s.PhoneNumber]; keep.path != s.path {
			if err := os.Remove(s.path); err != nil {
				cm.logger.Error("Failed to remove old session file",
					zap.String("file", s.path),
					zap.Error(err))
			}
		}
	}

	for phoneNumber, s := range latest {
		deviceStore, err := cm.openDevice(s.path, false)
		if err != nil {
			cm.logger.Info("No valid session found in database",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			continue
		}
		client := cm.newClient(deviceStore)

		cm.mutex.Lock()
		cm.clients[phoneNumber] = &ClientInfo{
			UUID:        s.ID,
			PhoneNumber: phoneNumber,
			Client:      client,
			Store:       deviceStore,
		}
		cm.mutex.Unlock()

		if client.Store.ID == nil {
			cm.logger.Info("Session requires QR code login", zap.String("phone_number", phoneNumber))
			continue
		}
		if err := client.Connect(); err != nil {
			cm.logger.Error("Failed to connect restored client",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			continue
		}
		cm.logger.Info("Session restored", zap.String("phone_number", phoneNumber))
	}
	return nil
}

// SetupClient initializes a new WhatsApp client
func (cm *ClientManager) SetupClient(sessionID, phoneNumber string) (*whatsmeow.Client, error) {
	if err := os.MkdirAll(cm.config.WhatsApp.StoreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	deviceStore, err := cm.openDevice(cm.storePath(phoneNumber, sessionID), true)
	if err != nil {
		return nil, err
	}
	client := cm.newClient(deviceStore)

	cm.mutex.Lock()
	cm.clients[phoneNumber] = &ClientInfo{
		UUID:        sessionID,
		PhoneNumber: phoneNumber,
		Client:      client,
		Store:       deviceStore,
	}
	cm.mutex.Unlock()

	return client, nil
}

// GetClient retrieves a WhatsApp client by phone number, reconnecting it
// when a stored session exists
func (cm *ClientManager) GetClient(phoneNumber string) (*whatsmeow.Client, bool) {
	cm.mutex.RLock()
	clientInfo, exists := cm.clients[phoneNumber]
	cm.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if !clientInfo.Client.IsConnected() && clientInfo.Store.ID != nil {
		if err := clientInfo.Client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			return nil, false
		}
		cm.logger.Info("Reconnected client", zap.String("phone_number", phoneNumber))
	}

	return clientInfo.Client, true
}

// Disconnect closes a specific WhatsApp connection
func (cm *ClientManager) Disconnect(phoneNumber string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	clientInfo, exists := cm.clients[phoneNumber]
	if !exists {
		return fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}

	clientInfo.Client.Disconnect()
	delete(cm.clients, phoneNumber)
	return nil
}

// DisconnectAll closes all WhatsApp connections
func (cm *ClientManager) DisconnectAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for phoneNumber, clientInfo := range cm.clients {
		if clientInfo.Client != nil {
			clientInfo.Client.Disconnect()
			cm.logger.Info("Disconnected client", zap.String("phone_number", phoneNumber))
		}
	}

	cm.clients = make(map[string]*ClientInfo)
}

// botClient returns any logged in client
func (cm *ClientManager) botClient() *whatsmeow.Client {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, clientInfo := range cm.clients {
		if clientInfo.Client != nil && clientInfo.Store.ID != nil {
			return clientInfo.Client
		}
	}
	return nil
}

// SendMessage delivers a text to a player through the bot's device
func (cm *ClientManager) SendMessage(recipient, message string) (string, error) {
	client := cm.botClient()
	if client == nil {
		return "", ErrNoClient
	}

	recipientJID, err := parseJID(recipient)
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	return send(client, recipientJID, message)
}

func send(client *whatsmeow.Client, to waTypes.JID, message string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := &waProto.Message{
		Conversation: proto.String(message),
	}
	response, err := client.SendMessage(ctx, to, msg)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return response.ID, nil
}

// handleWhatsAppEvent processes incoming WhatsApp events
func (cm *ClientManager) handleWhatsAppEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		cm.handleIncomingMessage(v)
	case *events.Connected:
		cm.logger.Info("WhatsApp client connected")
	case *events.Disconnected:
		cm.logger.Info("WhatsApp client disconnected")
	case *events.LoggedOut:
		cm.logger.Info("WhatsApp client logged out")
	}
}

// handleIncomingMessage answers commands sent in private chats, or in
// groups when prefixed with "/ "
func (cm *ClientManager) handleIncomingMessage(message *events.Message) {
	if message.Info.MessageSource.IsFromMe {
		return
	}

	content := message.Message.GetConversation()
	if content == "" {
		content = message.Message.GetExtendedTextMessage().GetText()
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	if message.Info.Chat.Server == waTypes.GroupServer {
		if !strings.HasPrefix(content, "/ ") {
			return
		}
		content = "/" + strings.TrimPrefix(content, "/ ")
	} else if !strings.HasPrefix(content, "/") {
		return
	}

	cm.logger.Debug("Received message",
		zap.String("content", content),
		zap.String("sender", message.Info.Sender.User),
		zap.String("chat", message.Info.Chat.User))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response := cm.processGameCommand(ctx, message.Info.Sender.User, content)
	if response == "" {
		return
	}

	client := cm.botClient()
	if client == nil {
		cm.logger.Error("No client available to send response")
		return
	}
	if _, err := send(client, message.Info.Chat, response); err != nil {
		cm.logger.Error("Failed to send response",
			zap.String("sender", message.Info.Sender.User),
			zap.Error(err))
	}
}

// parseJID converts a string to a WhatsApp JID
func parseJID(jidString string) (waTypes.JID, error) {
	if !strings.ContainsRune(jidString, '@') {
		jidString = jidString + "@" + waTypes.DefaultUserServer
	}
	return waTypes.ParseJID(jidString)
}
