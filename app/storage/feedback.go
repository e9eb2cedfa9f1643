// Package storage provides persistent stores on top of the sql engine.
// Feedback is an append-only log of user corrections to predictions, consumed by retraining.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/umputun/sms-spam/app/storage/engine"
	"github.com/umputun/sms-spam/lib/bayes"
)

// ErrPersistence returned when a record can't be written or read from the database
var ErrPersistence = errors.New("persistence failure")

// ErrInvalidFeedback returned when a record fails validation, nothing is written in this case
var ErrInvalidFeedback = errors.New("invalid feedback")

// Feedback is a storage for user feedback on predictions
type Feedback struct {
	*engine.SQL
	engine.RWLocker
}

// FeedbackRecord is a single feedback entry. UserLabel is nil if the user didn't pick a label.
type FeedbackRecord struct {
	ID             int64        `db:"id"`
	Message        string       `db:"message"`
	PredictedLabel bayes.Label  `db:"predicted_label"`
	UserLabel      *bayes.Label `db:"user_label"`
	Confidence     float64      `db:"confidence"`
	Timestamp      time.Time    `db:"timestamp"`
}

// LabeledMessage is a message with the label confirmed by user
type LabeledMessage struct {
	Message string      `db:"message"`
	Label   bayes.Label `db:"user_label"`
}

// FeedbackStats is a summary of collected feedback
type FeedbackStats struct {
	Total       int `db:"total" json:"total"`
	Labeled     int `db:"labeled" json:"labeled"`
	Corrections int `db:"corrections" json:"corrections"` // user label differs from prediction
}

// feedback-related command constants
const (
	CmdCreateFeedbackTable engine.DBCmd = iota + 100
	CmdCreateFeedbackIndexes
	CmdAddFeedback
	CmdReadLabeledFeedback
	CmdFeedbackStats
	CmdListFeedback
)

var feedbackQueries = engine.NewQueryMap().
	Add(CmdCreateFeedbackTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message TEXT NOT NULL,
			predicted_label INTEGER NOT NULL CHECK (predicted_label IN (0, 1)),
			user_label INTEGER CHECK (user_label IN (0, 1)),
			confidence REAL NOT NULL DEFAULT 0,
			timestamp DATETIME NOT NULL
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS feedback (
			id BIGSERIAL PRIMARY KEY,
			message TEXT NOT NULL,
			predicted_label INTEGER NOT NULL CHECK (predicted_label IN (0, 1)),
			user_label INTEGER CHECK (user_label IN (0, 1)),
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
	}).
	AddSame(CmdCreateFeedbackIndexes, `CREATE INDEX IF NOT EXISTS idx_feedback_user_label ON feedback(user_label)`).
	AddSame(CmdAddFeedback, `INSERT INTO feedback (message, predicted_label, user_label, confidence, timestamp)
		VALUES (?, ?, ?, ?, ?) RETURNING id`).
	AddSame(CmdReadLabeledFeedback, `SELECT message, user_label FROM feedback WHERE user_label IS NOT NULL ORDER BY id`).
	AddSame(CmdFeedbackStats, `SELECT COUNT(*) AS total, COUNT(user_label) AS labeled,
		COALESCE(SUM(CASE WHEN user_label IS NOT NULL AND user_label <> predicted_label THEN 1 ELSE 0 END), 0) AS corrections
		FROM feedback`).
	AddSame(CmdListFeedback, `SELECT id, message, predicted_label, user_label, confidence, timestamp
		FROM feedback ORDER BY id DESC LIMIT ?`)

// NewFeedback creates a new Feedback storage, making the table if missing
func NewFeedback(ctx context.Context, db *engine.SQL) (*Feedback, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db connection is nil", ErrPersistence)
	}
	res := &Feedback{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "feedback",
		CreateTable:   CmdCreateFeedbackTable,
		CreateIndexes: CmdCreateFeedbackIndexes,
		QueriesMap:    feedbackQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to init feedback storage: %w", ErrPersistence, err)
	}
	return res, nil
}

// Add appends a record in a single committed transaction and returns its id.
// The record is either fully stored or not stored at all.
func (f *Feedback) Add(ctx context.Context, rec FeedbackRecord) (int64, error) {
	if err := rec.validate(); err != nil {
		return 0, err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	query, err := feedbackQueries.Pick(f.Type(), CmdAddFeedback)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get add query: %w", ErrPersistence, err)
	}

	f.Lock()
	defer f.Unlock()

	tx, err := f.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to start transaction: %w", ErrPersistence, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var id int64
	if err = tx.GetContext(ctx, &id, f.Adopt(query), rec.Message, rec.PredictedLabel, rec.UserLabel,
		rec.Confidence, rec.Timestamp.UTC()); err != nil {
		return 0, fmt.Errorf("%w: failed to insert feedback: %w", ErrPersistence, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit feedback: %w", ErrPersistence, err)
	}

	userLabel := "none"
	if rec.UserLabel != nil {
		userLabel = rec.UserLabel.String()
	}
	log.Printf("[INFO] feedback #%d added, predicted: %s, user: %s, confidence: %.2f, msg: %q",
		id, rec.PredictedLabel, userLabel, rec.Confidence, shorten(rec.Message, 80))
	return id, nil
}

// ReadLabeled returns all records with user label, in insertion order
func (f *Feedback) ReadLabeled(ctx context.Context) ([]LabeledMessage, error) {
	query, err := feedbackQueries.Pick(f.Type(), CmdReadLabeledFeedback)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get read query: %w", ErrPersistence, err)
	}

	f.RLock()
	defer f.RUnlock()
	var res []LabeledMessage
	if err := f.SelectContext(ctx, &res, query); err != nil {
		return nil, fmt.Errorf("%w: failed to read labeled feedback: %w", ErrPersistence, err)
	}
	return res, nil
}

// Stats returns counts of total, labeled and corrected records
func (f *Feedback) Stats(ctx context.Context) (FeedbackStats, error) {
	query, err := feedbackQueries.Pick(f.Type(), CmdFeedbackStats)
	if err != nil {
		return FeedbackStats{}, fmt.Errorf("%w: failed to get stats query: %w", ErrPersistence, err)
	}

	f.RLock()
	defer f.RUnlock()
	var res FeedbackStats
	if err := f.GetContext(ctx, &res, query); err != nil {
		return FeedbackStats{}, fmt.Errorf("%w: failed to get feedback stats: %w", ErrPersistence, err)
	}
	return res, nil
}

// List returns up to limit most recent records, newest first
func (f *Feedback) List(ctx context.Context, limit int) ([]FeedbackRecord, error) {
	if limit <= 0 {
		return []FeedbackRecord{}, nil
	}
	query, err := feedbackQueries.Pick(f.Type(), CmdListFeedback)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get list query: %w", ErrPersistence, err)
	}

	f.RLock()
	defer f.RUnlock()
	var res []FeedbackRecord
	if err := f.SelectContext(ctx, &res, f.Adopt(query), limit); err != nil {
		return nil, fmt.Errorf("%w: failed to list feedback: %w", ErrPersistence, err)
	}
	for i := range res {
		res[i].Timestamp = res[i].Timestamp.Local()
	}
	return res, nil
}

func (r FeedbackRecord) validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: empty message", ErrInvalidFeedback)
	}
	if err := r.PredictedLabel.Validate(); err != nil {
		return fmt.Errorf("%w: predicted label: %w", ErrInvalidFeedback, err)
	}
	if r.UserLabel != nil {
		if err := r.UserLabel.Validate(); err != nil {
			return fmt.Errorf("%w: user label: %w", ErrInvalidFeedback, err)
		}
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of [0, 1]", ErrInvalidFeedback, r.Confidence)
	}
	return nil
}

func shorten(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
