package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	// WhatsApp configuration
	WhatsApp WhatsAppConfig `json:"whatsapp"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// WhatsAppConfig holds WhatsApp specific configuration
type WhatsAppConfig struct {
	// Enable the WhatsApp front-end
	Enabled bool `json:"enabled" env:"CRONICAS_WHATSAPP_ENABLED"`

	// Path to store WhatsApp session data
	StoreDir string `json:"store_dir" env:"CRONICAS_WHATSAPP_STORE_DIR"`

	// Client device name
	ClientName string `json:"client_name" env:"CRONICAS_WHATSAPP_CLIENT_NAME"`

	// QR code wait timeout in seconds
	QRTimeout int `json:"qr_timeout" env:"CRONICAS_WHATSAPP_QR_TIMEOUT"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Storage driver (sqlite, postgres, file)
	Driver string `json:"driver" env:"CRONICAS_DB_DRIVER"`

	// Connection string; a file path for sqlite and file drivers
	DSN string `json:"dsn" env:"CRONICAS_DB_DSN"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Age of a freshly created character
	StartingAge int `json:"starting_age" env:"CRONICAS_GAME_STARTING_AGE"`

	// In-game year a freshly created character starts in
	StartingYear int `json:"starting_year" env:"CRONICAS_GAME_STARTING_YEAR"`

	// Default starting honor
	StartingHonor int `json:"starting_honor" env:"CRONICAS_GAME_STARTING_HONOR"`

	// Default starting health
	StartingHealth int `json:"starting_health" env:"CRONICAS_GAME_STARTING_HEALTH"`

	// Default starting gold
	StartingGold int `json:"starting_gold" env:"CRONICAS_GAME_STARTING_GOLD"`

	// Location name given to new characters
	StartingLocation string `json:"starting_location" env:"CRONICAS_GAME_STARTING_LOCATION"`

	// Optional directory with JSON content overrides (age_events.json)
	ContentDir string `json:"content_dir" env:"CRONICAS_GAME_CONTENT_DIR"`

	// Seconds between omen checks for watched characters (0 disables)
	OmenInterval int `json:"omen_interval_seconds" env:"CRONICAS_GAME_OMEN_INTERVAL"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" env:"CRONICAS_SERVER_PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" env:"CRONICAS_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		WhatsApp: WhatsAppConfig{
			Enabled:    false,
			StoreDir:   "./whatsapp-store",
			ClientName: "CRONICAS DO JAPAO",
			QRTimeout:  60,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/cronicas.sqlite",
		},
		Game: GameConfig{
			StartingAge:      16,
			StartingYear:     1560,
			StartingHonor:    50,
			StartingHealth:   100,
			StartingGold:     10,
			StartingLocation: "Vila de origem",
			ContentDir:       "",
			OmenInterval:     60,
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from a file and applies environment overrides.
// A missing file is created with the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return applyEnv(config)
	}

	// Read config file
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("decode config %s: %w", path, err)
	}

	return applyEnv(config)
}

func applyEnv(config Config) (Config, error) {
	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
