package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"synr/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ InsightStore = (*SQLiteStore)(nil)
var _ ReflectionStore = (*SQLiteStore)(nil)
var _ SessionStore = (*SQLiteStore)(nil)

// SQLiteStore implements InsightStore, ReflectionStore, and SessionStore
// backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS news_insights (
	id                     TEXT PRIMARY KEY,
	headline               TEXT NOT NULL,
	ai_summary             TEXT NOT NULL,
	sentiment              TEXT NOT NULL,
	expected_gold_reaction TEXT NOT NULL,
	confidence             REAL,
	source                 TEXT,
	irrelevant             INTEGER NOT NULL DEFAULT 0,
	timestamp              TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_reflections (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	asset               TEXT NOT NULL,
	signal_type         TEXT NOT NULL,
	signal_price        REAL,
	predicted_direction TEXT NOT NULL,
	confidence          REAL NOT NULL,
	actual_outcome      TEXT NOT NULL,
	outcome_reason      TEXT,
	reflection_note     TEXT NOT NULL,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_contexts (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_date     TEXT NOT NULL,
	session_type     TEXT NOT NULL,
	emotional_state  TEXT,
	market_mood      TEXT,
	volatility_level TEXT,
	key_events       TEXT,
	created_at       TEXT NOT NULL,
	UNIQUE (session_date, session_type)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// InsightStore implementation
// ---------------------------------------------------------------------------

// SaveInsight inserts or replaces an insight by its ID.
func (s *SQLiteStore) SaveInsight(ctx context.Context, in *domain.NewsInsight) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO news_insights
			(id, headline, ai_summary, sentiment, expected_gold_reaction, confidence, source, irrelevant, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Headline, in.AISummary, string(in.Sentiment), string(in.ExpectedGoldReaction),
		in.Confidence, in.Source, boolToInt(in.Irrelevant), in.Timestamp.UTC().Format(time.RFC3339),
	)
	return err
}

// ListInsights returns the most recent insights, newest first.
func (s *SQLiteStore) ListInsights(ctx context.Context, limit int) ([]domain.NewsInsight, error) {
	query := `
		SELECT id, headline, ai_summary, sentiment, expected_gold_reaction, confidence, source, irrelevant, timestamp
		FROM news_insights ORDER BY timestamp DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []domain.NewsInsight
	for rows.Next() {
		var in domain.NewsInsight
		var sentiment, reaction, ts string
		var irrelevant int
		if err := rows.Scan(&in.ID, &in.Headline, &in.AISummary, &sentiment, &reaction,
			&in.Confidence, &in.Source, &irrelevant, &ts); err != nil {
			return nil, err
		}
		in.Sentiment = domain.SentimentLabel(sentiment)
		in.ExpectedGoldReaction = domain.Direction(reaction)
		in.Irrelevant = irrelevant != 0
		in.Timestamp, _ = time.Parse(time.RFC3339, ts)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// FlagIrrelevant marks an insight as irrelevant to gold trading.
func (s *SQLiteStore) FlagIrrelevant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE news_insights SET irrelevant = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insight %q not found", id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// ReflectionStore implementation
// ---------------------------------------------------------------------------

// SaveReflection inserts a reflection and assigns its ID.
func (s *SQLiteStore) SaveReflection(ctx context.Context, r *domain.TradeReflection) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_reflections
			(asset, signal_type, signal_price, predicted_direction, confidence, actual_outcome, outcome_reason, reflection_note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Asset, string(r.SignalType), r.SignalPrice, string(r.PredictedDirection),
		r.Confidence, r.ActualOutcome, r.OutcomeReason, r.ReflectionNote,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

// ListReflections returns reflections, newest first.
func (s *SQLiteStore) ListReflections(ctx context.Context, limit int) ([]domain.TradeReflection, error) {
	query := `
		SELECT id, asset, signal_type, signal_price, predicted_direction, confidence, actual_outcome, outcome_reason, reflection_note, created_at
		FROM trade_reflections ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reflections []domain.TradeReflection
	for rows.Next() {
		var r domain.TradeReflection
		var signalType, direction, ts string
		if err := rows.Scan(&r.ID, &r.Asset, &signalType, &r.SignalPrice, &direction,
			&r.Confidence, &r.ActualOutcome, &r.OutcomeReason, &r.ReflectionNote, &ts); err != nil {
			return nil, err
		}
		r.SignalType = domain.SignalType(signalType)
		r.PredictedDirection = domain.Direction(direction)
		r.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		reflections = append(reflections, r)
	}
	return reflections, rows.Err()
}

// ---------------------------------------------------------------------------
// SessionStore implementation
// ---------------------------------------------------------------------------

// SaveSessionContext inserts or replaces the context for one session.
func (s *SQLiteStore) SaveSessionContext(ctx context.Context, sc *domain.SessionContext) error {
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}
	events, err := json.Marshal(sc.KeyEvents)
	if err != nil {
		return fmt.Errorf("encoding key events: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO session_contexts
			(session_date, session_type, emotional_state, market_mood, volatility_level, key_events, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_date, session_type) DO UPDATE SET
			emotional_state = excluded.emotional_state,
			market_mood = excluded.market_mood,
			volatility_level = excluded.volatility_level,
			key_events = excluded.key_events`,
		sc.SessionDate, sc.SessionType, sc.EmotionalState, sc.MarketMood, sc.VolatilityLevel,
		string(events), sc.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		sc.ID = id
	}
	return nil
}

// GetSessionContext retrieves the context for one session, or nil when none
// is recorded.
func (s *SQLiteStore) GetSessionContext(ctx context.Context, sessionDate, sessionType string) (*domain.SessionContext, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_date, session_type, emotional_state, market_mood, volatility_level, key_events, created_at
		FROM session_contexts WHERE session_date = ? AND session_type = ?`,
		sessionDate, sessionType)

	sc, err := scanSessionContext(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sc, err
}

// ListSessionContexts returns all contexts recorded for a date.
func (s *SQLiteStore) ListSessionContexts(ctx context.Context, sessionDate string) ([]domain.SessionContext, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_date, session_type, emotional_state, market_mood, volatility_level, key_events, created_at
		FROM session_contexts WHERE session_date = ? ORDER BY id`,
		sessionDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contexts []domain.SessionContext
	for rows.Next() {
		sc, err := scanSessionContext(rows)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *sc)
	}
	return contexts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionContext(row rowScanner) (*domain.SessionContext, error) {
	var sc domain.SessionContext
	var events, ts string
	if err := row.Scan(&sc.ID, &sc.SessionDate, &sc.SessionType, &sc.EmotionalState,
		&sc.MarketMood, &sc.VolatilityLevel, &events, &ts); err != nil {
		return nil, err
	}
	if events != "" && events != "null" {
		if err := json.Unmarshal([]byte(events), &sc.KeyEvents); err != nil {
			return nil, fmt.Errorf("decoding key events: %w", err)
		}
	}
	sc.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	return &sc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
