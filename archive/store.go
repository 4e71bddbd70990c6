package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/verdict/attack"
	"github.com/zero-day-ai/verdict/risk"
	"github.com/zero-day-ai/verdict/session"
	"github.com/zero-day-ai/verdict/validation"
)

// ErrNotFound is returned when a record or snapshot does not exist.
var ErrNotFound = errors.New("archive: record not found")

// Record is one archived confirmation outcome: the original detection, the
// stability run that judged it, and the risk score it earned.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Detection is the original candidate finding.
	Detection attack.Detection `json:"detection"`

	// Stability is the stability validation outcome.
	Stability validation.StabilityResult `json:"stability"`

	// Score is the computed risk score.
	Score risk.Score `json:"score"`

	// SessionID links the record to its attack session, if any.
	SessionID string `json:"session_id,omitempty"`

	// CreatedAt is when the record was archived.
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord assembles a record with a fresh ID and timestamp.
func NewRecord(detection attack.Detection, stability validation.StabilityResult, score risk.Score) Record {
	return Record{
		ID:        uuid.New().String(),
		Detection: detection,
		Stability: stability,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
}

// Snapshot is a point-in-time capture of an attack session: its transcript
// plus the lifecycle history that produced it.
type Snapshot struct {
	// SessionID identifies the captured session.
	SessionID string `json:"session_id"`

	// Turns is the conversation transcript at capture time.
	Turns []session.Turn `json:"turns"`

	// State is the lifecycle state at capture time.
	State session.AttackState `json:"state"`

	// History is the full transition log.
	History []session.Transition `json:"history"`

	// SavedAt is when the snapshot was taken.
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotSession captures a session's transcript and lifecycle history.
func SnapshotSession(s *session.Session) Snapshot {
	return Snapshot{
		SessionID: s.ID,
		Turns:     append([]session.Turn(nil), s.Conversation.Turns...),
		State:     s.Machine.State(),
		History:   s.Machine.History(),
		SavedAt:   time.Now().UTC(),
	}
}

// Store persists confirmation records and session snapshots.
type Store interface {
	// Save archives a record and announces it to subscribers.
	Save(ctx context.Context, record Record) error

	// Get returns a record by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all archived records, in no particular order.
	List(ctx context.Context) ([]Record, error)

	// Top returns up to n records with the highest risk scores, highest
	// first.
	Top(ctx context.Context, n int) ([]Record, error)

	// Subscribe streams records as they are saved, until the context is
	// cancelled.
	Subscribe(ctx context.Context) (<-chan Record, error)

	// SaveSnapshot persists a session snapshot, replacing any previous
	// snapshot of the same session.
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error

	// GetSnapshot returns the snapshot for a session. Returns ErrNotFound
	// if absent.
	GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error)

	// Close releases the store's resources.
	Close() error
}
