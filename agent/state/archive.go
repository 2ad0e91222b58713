package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// TurnRecord is one completed agent turn flattened for offline analysis:
// the routing decision with its per-signal scores next to what the turn
// produced. Rows feed threshold and weight tuning for the router.
type TurnRecord struct {
	bun.BaseModel `bun:"table:turn_archive,alias:ta"`

	ID           int64     `bun:"id,pk,autoincrement"`
	SessionID    string    `bun:"session_id,notnull"`
	Question     string    `bun:"question,notnull"`
	Kind         string    `bun:"kind,notnull"`
	Routed       bool      `bun:"routed,notnull"`
	QuestionWord float64   `bun:"score_question_word,notnull"`
	Trigger      float64   `bun:"score_trigger,notnull"`
	SourceWord   float64   `bun:"score_source_word,notnull"`
	Specificity  float64   `bun:"score_specificity,notnull"`
	UsedCount    int       `bun:"used_count,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// NewTurnRecord maps one reply to its archive row.
func NewTurnRecord(sessionID, question string, reply contractx.Reply, at time.Time) *TurnRecord {
	rec := &TurnRecord{
		SessionID:    sessionID,
		Question:     question,
		Kind:         string(reply.Kind),
		Routed:       reply.Decision.Routed,
		QuestionWord: reply.Decision.Scores.QuestionWord,
		Trigger:      reply.Decision.Scores.Trigger,
		SourceWord:   reply.Decision.Scores.SourceWord,
		Specificity:  reply.Decision.Scores.Specificity,
		CreatedAt:    at.UTC(),
	}
	if reply.Rag != nil {
		rec.UsedCount = reply.Rag.UsedCount
	}
	return rec
}

// Archive records completed turns. Recording is telemetry: callers log
// failures and move on, a turn never fails because its archive write did.
type Archive interface {
	Record(ctx context.Context, rec *TurnRecord) error
}

type ArchiveConfig struct {
	DSN string `envconfig:"DSN" split_words:"true"`
}

// PostgresArchive persists TurnRecords through bun.
type PostgresArchive struct {
	db *bun.DB
}

func NewPostgresArchive(cfg ArchiveConfig) (*PostgresArchive, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("archive dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresArchive{db: db}, nil
}

// Init creates the archive table when it does not exist yet.
func (a *PostgresArchive) Init(ctx context.Context) error {
	if _, err := a.db.NewCreateTable().Model((*TurnRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create turn archive table: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Record(ctx context.Context, rec *TurnRecord) error {
	if rec == nil {
		return errors.New("turn record is nil")
	}
	if _, err := a.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("insert turn record: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
