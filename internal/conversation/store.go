package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/purposenavigator/self-analyzation/internal/db"
)

// Store is the document store contract the engine and the analysis service
// work against. Ids are opaque strings assigned by the store on insert.
type Store interface {
	// FindByID loads a conversation. Returns ErrNotFound if absent.
	FindByID(ctx context.Context, id string) (*Conversation, error)

	// Insert persists a new conversation, assigns its id and version, and
	// returns the id.
	Insert(ctx context.Context, c *Conversation) (string, error)

	// Update persists the conversation with compare-and-swap semantics on
	// its version. Returns ErrVersionConflict if a concurrent writer won,
	// ErrNotFound if the row is gone. On success the in-memory version is
	// advanced.
	Update(ctx context.Context, c *Conversation) error

	// SetAnalysisSummary atomically sets analysis_summaries[digest] on the
	// persisted document without rewriting the rest of it.
	SetAnalysisSummary(ctx context.Context, id, digest string, rec AnalysisRecord) error

	// SetKeywords atomically replaces the keyword cache on the persisted
	// document.
	SetKeywords(ctx context.Context, id string, keywords []string) error

	// ListWithStreams returns all of a user's conversations that have
	// non-empty questions and summaries streams, oldest first.
	ListWithStreams(ctx context.Context, userID string) ([]*Conversation, error)
}

// SQLiteStore implements Store over the SQLite conversations table.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a Store backed by the given database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

const conversationColumns = `id, user_id, topic, questions, summaries, analyze, answers,
	title, keywords, analysis_summaries, status, is_favorite, version,
	created_at, updated_at, deleted_at`

func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)

	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", id, err)
	}
	return c, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, c *Conversation) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	doc, err := marshalStreams(c)
	if err != nil {
		return "", fmt.Errorf("encoding conversation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations
			(id, user_id, topic, questions, summaries, analyze, answers,
			 title, keywords, analysis_summaries, status, is_favorite,
			 version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, c.UserID, c.Topic,
		doc.questions, doc.summaries, doc.analyze, doc.answers,
		c.Title, doc.keywords, doc.analysisSummaries,
		statusOrDefault(c.Status), boolToInt(c.IsFavorite),
		now, now,
	)
	if err != nil {
		return "", fmt.Errorf("inserting conversation: %w", err)
	}

	c.ID = id
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, c *Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("updating conversation: missing id")
	}

	now := time.Now().UTC()
	doc, err := marshalStreams(c)
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations
		SET questions = ?, summaries = ?, analyze = ?, answers = ?,
		    title = ?, status = ?, is_favorite = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		doc.questions, doc.summaries, doc.analyze, doc.answers,
		c.Title, statusOrDefault(c.Status), boolToInt(c.IsFavorite),
		now, c.ID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("updating conversation %s: %w", c.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating conversation %s: %w", c.ID, err)
	}
	if affected == 0 {
		// Distinguish a lost CAS race from a vanished row.
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM conversations WHERE id = ?`, c.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("updating conversation %s: %w", c.ID, err)
		}
		return ErrVersionConflict
	}

	c.Version++
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) SetAnalysisSummary(ctx context.Context, id, digest string, rec AnalysisRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding analysis record: %w", err)
	}

	// json_set adds the key without touching sibling entries, so concurrent
	// writers of distinct digests do not clobber each other.
	path := fmt.Sprintf(`$."%s"`, digest)
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations
		SET analysis_summaries = json_set(analysis_summaries, ?, json(?)),
		    updated_at = ?
		WHERE id = ?`,
		path, string(value), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("storing analysis summary for %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing analysis summary for %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SetKeywords(ctx context.Context, id string, keywords []string) error {
	value, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET keywords = ?, updated_at = ? WHERE id = ?`,
		string(value), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("storing keywords for %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing keywords for %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListWithStreams(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations
		 WHERE user_id = ? AND questions != '[]' AND summaries != '[]'
		   AND deleted_at IS NULL
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("listing conversations for user %s: %w", userID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing conversations for user %s: %w", userID, err)
	}
	return out, nil
}

// encodedStreams carries the JSON column values for one conversation row.
type encodedStreams struct {
	questions         string
	summaries         string
	analyze           string
	answers           string
	keywords          string
	analysisSummaries string
}

func marshalStreams(c *Conversation) (encodedStreams, error) {
	var doc encodedStreams
	var err error

	if doc.questions, err = marshalMessages(c.Questions); err != nil {
		return doc, err
	}
	if doc.summaries, err = marshalMessages(c.Summaries); err != nil {
		return doc, err
	}
	if doc.analyze, err = marshalMessages(c.Analyze); err != nil {
		return doc, err
	}
	if doc.answers, err = marshalMessages(c.Answers); err != nil {
		return doc, err
	}

	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return doc, err
	}
	doc.keywords = string(kw)

	summaries := c.AnalysisSummaries
	if summaries == nil {
		summaries = map[string]AnalysisRecord{}
	}
	as, err := json.Marshal(summaries)
	if err != nil {
		return doc, err
	}
	doc.analysisSummaries = string(as)

	return doc, nil
}

func marshalMessages(msgs []Message) (string, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var (
		c           Conversation
		questions   string
		summaries   string
		analyze     string
		answers     string
		keywords    string
		analysisMap string
		isFavorite  int
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.UserID, &c.Topic,
		&questions, &summaries, &analyze, &answers,
		&c.Title, &keywords, &analysisMap,
		&c.Status, &isFavorite, &c.Version,
		&c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(questions), &c.Questions); err != nil {
		return nil, fmt.Errorf("decoding questions: %w", err)
	}
	if err := json.Unmarshal([]byte(summaries), &c.Summaries); err != nil {
		return nil, fmt.Errorf("decoding summaries: %w", err)
	}
	if err := json.Unmarshal([]byte(analyze), &c.Analyze); err != nil {
		return nil, fmt.Errorf("decoding analyze: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &c.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &c.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(analysisMap), &c.AnalysisSummaries); err != nil {
		return nil, fmt.Errorf("decoding analysis summaries: %w", err)
	}

	c.IsFavorite = isFavorite != 0
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return &c, nil
}

func statusOrDefault(status string) string {
	if status == "" {
		return StatusActive
	}
	return status
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
