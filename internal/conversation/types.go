// Package conversation owns the conversation aggregate and its lifecycle: the
// four parallel message streams, persistence, and the round state machine
// that keeps the streams in lockstep.
package conversation

import "time"

// Role identifies the author of a message within a stream.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a stream. Streams are append-only and chronological.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Evaluation is the {label: percentage} tail of one parsed analysis line. The
// percentage keeps its original numeric text; normalization to a float
// happens during consolidation, not here.
type Evaluation struct {
	Label      string `json:"label"`
	Percentage string `json:"percentage"`
}

// AttributeExplanation is one structured line of a values analysis.
type AttributeExplanation struct {
	Attribute   string     `json:"attribute"`
	Explanation string     `json:"explanation"`
	Evaluation  Evaluation `json:"evaluation"`
}

// AnalysisRecord is a computed values analysis, cached on the conversation
// keyed by the SHA-256 digest of the summary content it was derived from.
// CreatedAt orders entries so aggregation can pick the most recent one.
type AnalysisRecord struct {
	RawText   string                 `json:"raw_text"`
	Values    []AttributeExplanation `json:"values"`
	CreatedAt time.Time              `json:"created_at"`
}

// Conversation is the central aggregate: four parallel message streams plus
// lifecycle metadata, persisted as a single document. The invariant enforced
// by the engine is that every completed round appends exactly one message to
// each stream, so turn N in Questions corresponds to turn N in the other
// three streams.
type Conversation struct {
	ID                string                    `json:"conversation_id"`
	UserID            string                    `json:"user_id"`
	Topic             string                    `json:"topic"`
	Questions         []Message                 `json:"questions"`
	Summaries         []Message                 `json:"summaries"`
	Analyze           []Message                 `json:"analyze"`
	Answers           []Message                 `json:"answers"`
	Title             string                    `json:"title,omitempty"`
	Keywords          []string                  `json:"keywords,omitempty"`
	AnalysisSummaries map[string]AnalysisRecord `json:"analysis_summaries,omitempty"`
	Status            string                    `json:"status"`
	IsFavorite        bool                      `json:"is_favorite"`
	Version           int64                     `json:"version"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
	DeletedAt         *time.Time                `json:"deleted_at,omitempty"`
}

// StatusActive is the only status this service ever assigns. The column
// exists so archival can be added without a schema change.
const StatusActive = "active"

// newConversation allocates a fresh, unpersisted conversation. The id stays
// empty until the first persist assigns one.
func newConversation(userID, topic string) *Conversation {
	return &Conversation{
		UserID: userID,
		Topic:  topic,
		Status: StatusActive,
	}
}

// Seeded reports whether the system roles have been pushed onto the streams.
func (c *Conversation) Seeded() bool {
	return len(c.Questions) > 0
}

// AssistantSummaries returns the content of every assistant turn in the
// summaries stream, in stream order.
func (c *Conversation) AssistantSummaries() []string {
	var out []string
	for _, m := range c.Summaries {
		if m.Role == RoleAssistant {
			out = append(out, m.Content)
		}
	}
	return out
}

// AssistantAnalyze returns the assistant turns of the analyze stream.
func (c *Conversation) AssistantAnalyze() []Message {
	var out []Message
	for _, m := range c.Analyze {
		if m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// UserTurns returns the content of every user turn in the questions stream,
// in stream order. The questions stream is used as the canonical record of
// what the user actually said; the same user turns exist in all four streams.
func (c *Conversation) UserTurns() []string {
	var out []string
	for _, m := range c.Questions {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

// LatestAnalysis returns the most recently inserted analysis record, or
// false if none exist.
func (c *Conversation) LatestAnalysis() (AnalysisRecord, bool) {
	var latest AnalysisRecord
	found := false
	for _, rec := range c.AnalysisSummaries {
		if !found || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
			found = true
		}
	}
	return latest, found
}
