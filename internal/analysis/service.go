package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/conversation"
	"github.com/purposenavigator/self-analyzation/internal/llm"
)

// keywordDirective drives the legacy per-reply keyword extraction path.
const keywordDirective = "Extract only the keywords that represent the most important traits, values, or actions of the subject from the following text. Show only the keywords, without additional context or sentences. The output should be a list of keywords separated by commas."

// Service computes and caches values analyses and aggregates them into a
// per-user profile.
type Service struct {
	store    conversation.Store
	provider llm.Provider
	catalog  *catalog.Catalog
	model    string
	logger   *log.Logger
}

// NewService wires an analysis service.
func NewService(store conversation.Store, provider llm.Provider, cat *catalog.Catalog, model string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:    store,
		provider: provider,
		catalog:  cat,
		model:    model,
		logger:   logger,
	}
}

// Digest computes the cache key for a content state: the SHA-256 hex digest
// of the assistant summaries joined by a single space. Only summary turns
// feed the key, so it stays stable no matter how many question or answer
// turns happened alongside.
func Digest(summaries []string) string {
	sum := sha256.Sum256([]byte(strings.Join(summaries, " ")))
	return hex.EncodeToString(sum[:])
}

// GetOrCompute returns the values analysis for a conversation's current
// summary content, computing and caching it on first sight. A repeat call
// without new summary turns is a cache hit and makes no model call.
func (s *Service) GetOrCompute(ctx context.Context, conversationID string) (conversation.AnalysisRecord, error) {
	conv, err := s.store.FindByID(ctx, conversationID)
	if err != nil {
		return conversation.AnalysisRecord{}, err
	}

	content := strings.Join(conv.AssistantSummaries(), " ")
	digest := Digest(conv.AssistantSummaries())

	if rec, ok := conv.AnalysisSummaries[digest]; ok {
		return rec, nil
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: conversation.AdviserDirective(s.catalog)},
			{Role: llm.RoleUser, Content: content},
		},
	})
	if err != nil {
		return conversation.AnalysisRecord{}, fmt.Errorf("computing analysis for %s: %w", conversationID, err)
	}

	rawText := strings.TrimSpace(resp.Content)
	values, err := Parse(rawText)
	if err != nil {
		return conversation.AnalysisRecord{}, err
	}

	rec := conversation.AnalysisRecord{
		RawText:   rawText,
		Values:    values,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SetAnalysisSummary(ctx, conversationID, digest, rec); err != nil {
		return conversation.AnalysisRecord{}, err
	}

	s.logger.Info("cached new analysis",
		"conversation_id", conversationID, "digest", digest, "values", len(values))
	return rec, nil
}

// AnalyzeStream returns the assistant-authored messages of a conversation's
// analyze stream.
func (s *Service) AnalyzeStream(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	conv, err := s.store.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conv.AssistantAnalyze(), nil
}

// RefreshKeywords brings the conversation's keyword cache up to date with
// its analyze stream: every assistant analyze reply without a cached keyword
// entry gets one extraction call, and the extended cache is persisted. This
// is the legacy extraction path kept alongside the digest cache.
func (s *Service) RefreshKeywords(ctx context.Context, conversationID string) ([]string, error) {
	conv, err := s.store.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	var replies []string
	for _, m := range conv.AssistantAnalyze() {
		replies = append(replies, m.Content)
	}

	keywords := conv.Keywords
	if len(replies) <= len(keywords) {
		return keywords, nil
	}

	for _, reply := range replies[len(keywords):] {
		resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
			Model: s.model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: keywordDirective + "\n\nText: " + reply},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("extracting keywords for %s: %w", conversationID, err)
		}
		keywords = append(keywords, strings.TrimSpace(resp.Content))
	}

	if err := s.store.SetKeywords(ctx, conversationID, keywords); err != nil {
		return nil, err
	}
	return keywords, nil
}

// UserProfile aggregates a user's cached analyses into one ranked, labeled
// attribute list. Each conversation contributes only its most recently
// inserted analysis record; conversations without one are skipped.
func (s *Service) UserProfile(ctx context.Context, userID string) ([]LabeledAttribute, error) {
	convs, err := s.store.ListWithStreams(ctx, userID)
	if err != nil {
		return nil, err
	}

	var records []conversation.AttributeExplanation
	for _, conv := range convs {
		rec, ok := conv.LatestAnalysis()
		if !ok {
			continue
		}
		records = append(records, rec.Values...)
	}
	if len(records) == 0 {
		return []LabeledAttribute{}, nil
	}

	consolidated, err := Consolidate(records)
	if err != nil {
		return nil, err
	}
	return Label(consolidated), nil
}
