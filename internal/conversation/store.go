// Package conversation persists the ordered transcript of each
// (office, routing address) conversation. Fragments are opaque blobs
// produced by the conversational engine; this package never interprets
// their internal structure.
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthup/dental-assistant/internal/clock"
	"github.com/healthup/dental-assistant/internal/ids"
)

// Fragment is one stored transcript unit: one or more role-tagged turns
// serialized by the engine.
type Fragment struct {
	ID                string
	OfficeID          string
	PhoneNumber       string
	Content           []byte
	ProviderMessageID string
	CreatedAt         time.Time
}

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store appends and loads conversation fragments in Postgres.
type Store struct {
	pool   Querier
	clock  *clock.Clock
	tracer trace.Tracer
}

// NewStore wires the store to the database and the office clock.
func NewStore(pool Querier, clk *clock.Clock) *Store {
	if pool == nil {
		panic("conversation: pgx pool required")
	}
	if clk == nil {
		panic("conversation: clock required")
	}
	return &Store{
		pool:   pool,
		clock:  clk,
		tracer: otel.Tracer("dental.internal.conversation"),
	}
}

// Append stores one fragment atomically. The provider message id makes the
// write idempotent under at-least-once queue redelivery: replaying the same
// inbound message inserts nothing and reports inserted=false.
func (s *Store) Append(ctx context.Context, officeID, phone string, content []byte, providerMessageID string) (id string, inserted bool, err error) {
	ctx, span := s.tracer.Start(ctx, "conversation.append")
	defer span.End()

	id = ids.New()
	ct, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, office_id, phone_number, content, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_message_id) DO NOTHING
	`, id, officeID, phone, content, providerMessageID, s.clock.Now())
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("conversation: insert fragment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return "", false, nil
	}
	return id, true, nil
}

// LoadRecent returns a bounded history window: the newest maxCount fragments
// not older than maxAge, re-ordered oldest first so the engine replays the
// conversation in the order it happened.
func (s *Store) LoadRecent(ctx context.Context, officeID, phone string, maxCount int, maxAge time.Duration) ([]Fragment, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_recent")
	defer span.End()

	if maxCount <= 0 {
		maxCount = 10
	}
	cutoff := s.clock.Now().Add(-maxAge)

	rows, err := s.pool.Query(ctx, `
		SELECT id, office_id, phone_number, content, COALESCE(provider_message_id, ''), created_at
		FROM chat_messages
		WHERE office_id = $1 AND phone_number = $2 AND created_at >= $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, officeID, phone, cutoff, maxCount)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: load recent: %w", err)
	}
	defer rows.Close()

	var fragments []Fragment
	for rows.Next() {
		var f Fragment
		if err := rows.Scan(&f.ID, &f.OfficeID, &f.PhoneNumber, &f.Content, &f.ProviderMessageID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan fragment: %w", err)
		}
		fragments = append(fragments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: load recent: %w", err)
	}

	// Query returns newest first so LIMIT keeps the most recent window;
	// callers need oldest first.
	for i, j := 0, len(fragments)-1; i < j; i, j = i+1, j-1 {
		fragments[i], fragments[j] = fragments[j], fragments[i]
	}
	return fragments, nil
}
