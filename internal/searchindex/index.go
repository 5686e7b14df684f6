package searchindex

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/purposenavigator/self-analyzation/internal/conversation"
)

const collectionName = "summaries"

// Index is a semantic index over conversation summaries, one document per
// conversation. Re-indexing a conversation replaces its document, so the
// index always reflects the latest summary state.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewIndex creates a new in-memory Index.
func NewIndex(embedder Embedder) (*Index, error) {
	db := chromem.NewDB()
	ef := ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Index{db: db, collection: col, embedFunc: ef}, nil
}

// IndexSummaries adds or refreshes a conversation's index document from its
// assistant summaries. Conversations without summaries are skipped.
func (ix *Index) IndexSummaries(ctx context.Context, conv *conversation.Conversation) error {
	content := strings.Join(conv.AssistantSummaries(), " ")
	if content == "" {
		return nil
	}

	doc := chromem.Document{
		ID:      conv.ID,
		Content: content,
		Metadata: map[string]string{
			"user_id": conv.UserID,
			"topic":   conv.Topic,
			"title":   conv.Title,
		},
	}
	return ix.collection.AddDocuments(ctx, []chromem.Document{doc}, 1)
}

// RelatedConversation is one semantic neighbor of a conversation.
type RelatedConversation struct {
	ConversationID string  `json:"conversation_id"`
	Topic          string  `json:"topic"`
	Title          string  `json:"title,omitempty"`
	Similarity     float32 `json:"similarity"`
}

// Related returns the user's other indexed conversations closest in summary
// content to the given one, most similar first.
func (ix *Index) Related(ctx context.Context, conv *conversation.Conversation, limit int) ([]RelatedConversation, error) {
	content := strings.Join(conv.AssistantSummaries(), " ")
	if content == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size; ask for one extra
	// so the conversation itself can be dropped from its own results.
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := limit + 1
	if n > count {
		n = count
	}

	where := map[string]string{"user_id": conv.UserID}
	results, err := ix.collection.Query(ctx, content, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]RelatedConversation, 0, len(results))
	for _, r := range results {
		if r.ID == conv.ID {
			continue
		}
		out = append(out, RelatedConversation{
			ConversationID: r.ID,
			Topic:          r.Metadata["topic"],
			Title:          r.Metadata["title"],
			Similarity:     r.Similarity,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Search finds a user's conversations by free-text query.
func (ix *Index) Search(ctx context.Context, userID, query string, limit int) ([]RelatedConversation, error) {
	if limit <= 0 {
		limit = 5
	}
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	where := map[string]string{"user_id": userID}
	results, err := ix.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]RelatedConversation, 0, len(results))
	for _, r := range results {
		out = append(out, RelatedConversation{
			ConversationID: r.ID,
			Topic:          r.Metadata["topic"],
			Title:          r.Metadata["title"],
			Similarity:     r.Similarity,
		})
	}
	return out, nil
}

// Persist saves the index to the given directory.
func (ix *Index) Persist(dir string) error {
	return ix.db.ExportToFile(dir+"/searchindex.gob.gz", true, "")
}

// Load restores the index from the given directory.
func (ix *Index) Load(dir string) error {
	if err := ix.db.ImportFromFile(dir+"/searchindex.gob.gz", ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := ix.db.GetCollection(collectionName, ix.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	ix.collection = col
	return nil
}

// Count returns the number of indexed conversations.
func (ix *Index) Count() int {
	return ix.collection.Count()
}
