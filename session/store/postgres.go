package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/session"
)

// PostgresStore implements session storage using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "reagent",
		SSLMode:  "disable",
	}
}

// NewPostgresStore creates a new PostgreSQL-based session store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS agent_runs (
		id VARCHAR(255) PRIMARY KEY,
		agent_type VARCHAR(32) NOT NULL,
		instruction TEXT NOT NULL,
		answer TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		total_tokens INTEGER NOT NULL,
		total_cost DOUBLE PRECISION NOT NULL,
		metadata JSONB,
		created_at TIMESTAMP NOT NULL,
		duration_ns BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agent_runs_created_at ON agent_runs(created_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save persists a run record.
func (s *PostgresStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil")
	}

	metadataJSON := []byte("{}")
	if len(record.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
	INSERT INTO agent_runs (id, agent_type, instruction, answer, status, total_tokens, total_cost, metadata, created_at, duration_ns)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		answer = EXCLUDED.answer,
		status = EXCLUDED.status,
		total_tokens = EXCLUDED.total_tokens,
		total_cost = EXCLUDED.total_cost,
		metadata = EXCLUDED.metadata,
		duration_ns = EXCLUDED.duration_ns
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		string(record.AgentType),
		record.Instruction,
		record.Answer,
		string(record.Status),
		record.TotalTokens,
		record.TotalCost,
		string(metadataJSON),
		record.CreatedAt,
		int64(record.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to save session to PostgreSQL: %w", err)
	}
	return nil
}

// Load loads a run record.
func (s *PostgresStore) Load(ctx context.Context, id string) (*session.Record, error) {
	query := `
	SELECT id, agent_type, instruction, answer, status, total_tokens, total_cost, metadata, created_at, duration_ns
	FROM agent_runs WHERE id = $1
	`
	var (
		record       session.Record
		agentType    string
		status       string
		metadataJSON []byte
		durationNS   int64
		createdAt    time.Time
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&agentType,
		&record.Instruction,
		&record.Answer,
		&status,
		&record.TotalTokens,
		&record.TotalCost,
		&metadataJSON,
		&createdAt,
		&durationNS,
	)
	if err == sql.ErrNoRows {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from PostgreSQL: %w", err)
	}

	record.AgentType = agent.Type(agentType)
	record.Status = agent.Status(status)
	record.CreatedAt = createdAt
	record.Duration = time.Duration(durationNS)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &record, nil
}

// Delete removes a run record.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM agent_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session from PostgreSQL: %w", err)
	}
	return nil
}

// List returns all record IDs, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM agent_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
