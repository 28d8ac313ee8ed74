// Package storage opens the character repository selected by configuration:
// an embedded SQLite database, a PostgreSQL server or a JSON file.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/interfaces"
	"github.com/user/cronicas-do-japao/internal/types"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect is the SQL flavour spoken by a repository
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"

	// DriverFile selects the JSON file repository
	DriverFile = "file"
)

// Repository is a character repository that holds resources
type Repository interface {
	interfaces.CharacterRepository
	Close() error
}

const characterColumns = "id, user_id, name, clan, profession, travel_reason, marital_status, children_count, " +
	"health, honor, gold, strength, agility, intelligence, charisma, age, birth_year, current_year, " +
	"is_alive, death_reason, region, current_location, secret_path, created_at, updated_at"

// SQLRepository stores characters in a relational database
type SQLRepository struct {
	dialect Dialect
	db      *sql.DB
	logger  *zap.Logger
}

var _ Repository = (*SQLRepository)(nil)

type fileRepository struct {
	*game.FileRepository
}

func (fileRepository) Close() error { return nil }

// Open opens the repository named by cfg.Driver
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := strings.TrimSpace(strings.ToLower(cfg.Driver))
	if driver == "" {
		driver = string(DialectSQLite)
	}
	dsn := strings.TrimSpace(cfg.DSN)

	switch driver {
	case DriverFile:
		if dsn == "" {
			dsn = filepath.Join("data", "cronicas.json")
		}
		repo, err := game.NewFileRepository(dsn)
		if err != nil {
			return nil, err
		}
		logger.Info("Using file repository", zap.String("path", dsn))
		return fileRepository{repo}, nil
	case string(DialectSQLite):
		if dsn == "" {
			dsn = filepath.Join("data", "cronicas.sqlite")
		}
		return OpenSQLite(ctx, dsn, logger)
	case string(DialectPostgres):
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if dsn == "" {
			return nil, errors.New("postgres driver requires a dsn or DATABASE_URL")
		}
		return openSQL(ctx, DialectPostgres, "pgx", dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens or creates the SQLite database at path
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return openSQL(ctx, DialectSQLite, "sqlite", dsn, logger)
}

func openSQL(ctx context.Context, dialect Dialect, driverName, dsn string, logger *zap.Logger) (*SQLRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db, logger: logger}
	if err := repo.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Database ready", zap.String("dialect", string(dialect)))
	return repo, nil
}

// Close closes the database
func (r *SQLRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = r.bind(i + 1)
	}
	return strings.Join(ph, ", ")
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at BIGINT NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", r.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s)", r.placeholders(2))
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
		r.logger.Info("Applied migration", zap.String("version", base))
	}
	return nil
}

// CreateCharacter inserts a new character
func (r *SQLRepository) CreateCharacter(ctx context.Context, c *types.Character) error {
	now := time.Now()
	createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	q := fmt.Sprintf("INSERT INTO characters (%s) VALUES (%s)", characterColumns, r.placeholders(25))
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.UserID, c.Name, c.Clan, c.Profession, c.TravelReason, c.MaritalStatus, c.ChildrenCount,
		c.Health, c.Honor, c.Gold, c.Strength, c.Agility, c.Intelligence, c.Charisma,
		c.Age, c.BirthYear, c.CurrentYear, c.IsAlive, nullString(c.DeathReason),
		c.Region, c.CurrentLocation, nullString(c.SecretPath),
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert character: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (*types.Character, error) {
	var (
		c           types.Character
		deathReason sql.NullString
		secretPath  sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Clan, &c.Profession, &c.TravelReason, &c.MaritalStatus, &c.ChildrenCount,
		&c.Health, &c.Honor, &c.Gold, &c.Strength, &c.Agility, &c.Intelligence, &c.Charisma,
		&c.Age, &c.BirthYear, &c.CurrentYear, &c.IsAlive, &deathReason,
		&c.Region, &c.CurrentLocation, &secretPath,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DeathReason = deathReason.String
	c.SecretPath = secretPath.String
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

// GetCharacter loads one character
func (r *SQLRepository) GetCharacter(ctx context.Context, id string) (*types.Character, error) {
	q := fmt.Sprintf("SELECT %s FROM characters WHERE id = %s", characterColumns, r.bind(1))
	c, err := scanCharacter(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select character: %w", err)
	}
	return c, nil
}

// ListCharacters returns the characters of a user, oldest first
func (r *SQLRepository) ListCharacters(ctx context.Context, userID string) ([]*types.Character, error) {
	q := fmt.Sprintf("SELECT %s FROM characters WHERE user_id = %s ORDER BY created_at, id", characterColumns, r.bind(1))
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("select characters: %w", err)
	}
	defer rows.Close()

	var out []*types.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCharacter writes the set fields of patch in a single statement
func (r *SQLRepository) UpdateCharacter(ctx context.Context, id string, patch types.CharacterPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = %s", column, r.bind(len(args))))
	}

	setIntColumn := func(column string, v *int) {
		if v != nil {
			set(column, *v)
		}
	}
	setIntColumn("health", patch.Health)
	setIntColumn("honor", patch.Honor)
	setIntColumn("gold", patch.Gold)
	setIntColumn("strength", patch.Strength)
	setIntColumn("agility", patch.Agility)
	setIntColumn("intelligence", patch.Intelligence)
	setIntColumn("charisma", patch.Charisma)
	setIntColumn("age", patch.Age)
	setIntColumn("current_year", patch.CurrentYear)
	if patch.IsAlive != nil {
		set("is_alive", *patch.IsAlive)
	}
	if patch.DeathReason != nil {
		set("death_reason", nullString(*patch.DeathReason))
	}
	if patch.Region != nil {
		set("region", *patch.Region)
	}
	if patch.CurrentLocation != nil {
		set("current_location", *patch.CurrentLocation)
	}
	if patch.SecretPath != nil {
		set("secret_path", nullString(*patch.SecretPath))
	}
	set("updated_at", toMillis(time.Now()))

	args = append(args, id)
	q := fmt.Sprintf("UPDATE characters SET %s WHERE id = %s", strings.Join(sets, ", "), r.bind(len(args)))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) characterExists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM characters WHERE id = "+r.bind(1), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// AppendEvent adds a history record
func (r *SQLRepository) AppendEvent(ctx context.Context, event *types.GameEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := r.characterExists(ctx, tx, event.CharacterID)
	if err != nil {
		return fmt.Errorf("check character: %w", err)
	}
	if !exists {
		return interfaces.ErrNotFound
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	q := fmt.Sprintf(
		"INSERT INTO game_events (id, character_id, event_type, title, description, choices, consequences, year, created_at) VALUES (%s)",
		r.placeholders(9))
	if _, err := tx.ExecContext(ctx, q,
		event.ID, event.CharacterID, event.EventType, event.Title, event.Description,
		asJSON(event.Choices), asJSON(event.Consequences), event.Year, toMillis(createdAt),
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event tx: %w", err)
	}
	return nil
}

// ListEvents returns the history of a character in insertion order
func (r *SQLRepository) ListEvents(ctx context.Context, characterID string) ([]*types.GameEvent, error) {
	q := "SELECT id, character_id, event_type, title, description, choices, consequences, year, created_at " +
		"FROM game_events WHERE character_id = " + r.bind(1) + " ORDER BY " + r.insertionOrder()
	rows, err := r.db.QueryContext(ctx, q, characterID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var out []*types.GameEvent
	for rows.Next() {
		var (
			e            types.GameEvent
			choices      string
			consequences string
			createdAt    int64
		)
		if err := rows.Scan(&e.ID, &e.CharacterID, &e.EventType, &e.Title, &e.Description,
			&choices, &consequences, &e.Year, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &e.Choices); err != nil {
			return nil, fmt.Errorf("decode event choices: %w", err)
		}
		if err := json.Unmarshal([]byte(consequences), &e.Consequences); err != nil {
			return nil, fmt.Errorf("decode event consequences: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// insertionOrder is the column that follows insert order. Timestamps collide
// within a millisecond and ids are random.
func (r *SQLRepository) insertionOrder() string {
	if r.dialect == DialectPostgres {
		return "seq"
	}
	return "rowid"
}

// RecordSecret stores a discovery and marks the path on the character atomically
func (r *SQLRepository) RecordSecret(ctx context.Context, discovery types.SecretDiscovery) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin secret tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	discoveredAt := discovery.DiscoveredAt
	if discoveredAt.IsZero() {
		discoveredAt = time.Now()
	}

	q := fmt.Sprintf("UPDATE characters SET secret_path = %s, updated_at = %s WHERE id = %s", r.bind(1), r.bind(2), r.bind(3))
	res, err := tx.ExecContext(ctx, q, discovery.SecretPathID, toMillis(time.Now()), discovery.CharacterID)
	if err != nil {
		return fmt.Errorf("mark secret path: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("mark secret path: %w", err)
	} else if n == 0 {
		return interfaces.ErrNotFound
	}

	q = fmt.Sprintf(
		"INSERT INTO character_secrets (character_id, secret_path_id, discovered_at) VALUES (%s) "+
			"ON CONFLICT (character_id, secret_path_id) DO NOTHING",
		r.placeholders(3))
	if _, err := tx.ExecContext(ctx, q, discovery.CharacterID, discovery.SecretPathID, toMillis(discoveredAt)); err != nil {
		return fmt.Errorf("insert secret: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit secret tx: %w", err)
	}
	return nil
}

// ListSecrets returns the discoveries of a character
func (r *SQLRepository) ListSecrets(ctx context.Context, characterID string) ([]types.SecretDiscovery, error) {
	q := "SELECT character_id, secret_path_id, discovered_at FROM character_secrets WHERE character_id = " +
		r.bind(1) + " ORDER BY discovered_at, secret_path_id"
	rows, err := r.db.QueryContext(ctx, q, characterID)
	if err != nil {
		return nil, fmt.Errorf("select secrets: %w", err)
	}
	defer rows.Close()

	var out []types.SecretDiscovery
	for rows.Next() {
		var (
			d  types.SecretDiscovery
			at int64
		)
		if err := rows.Scan(&d.CharacterID, &d.SecretPathID, &at); err != nil {
			return nil, fmt.Errorf("scan secret: %w", err)
		}
		d.DiscoveredAt = fromMillis(at)
		out = append(out, d)
	}
	return out, rows.Err()
}

func asJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return "[]"
	}
	return string(raw)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
