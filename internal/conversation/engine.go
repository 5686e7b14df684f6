package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/llm"
)

// SummaryIndexer receives a conversation after a round commits so its
// summaries can be re-indexed. Indexing is best effort; failures never fail
// the turn.
type SummaryIndexer interface {
	IndexSummaries(ctx context.Context, conv *Conversation) error
}

// Engine drives the conversation state machine: seeding, turn appends, the
// four-stream completion round, and lazy title generation.
type Engine struct {
	store        Store
	provider     llm.Provider
	catalog      *catalog.Catalog
	indexer      SummaryIndexer
	model        string
	titleModel   string
	strictResume bool
	logger       *log.Logger
}

// EngineConfig carries the tunables the engine needs beyond its
// collaborators.
type EngineConfig struct {
	// Model is the completion model used for every stream.
	Model string
	// TitleModel is the (usually cheaper) model used for title generation.
	// Falls back to Model when empty.
	TitleModel string
	// StrictResume makes a turn against an unknown conversation id fail
	// with ErrNotFound instead of silently starting a fresh conversation.
	StrictResume bool
	// Indexer, when set, is notified after every committed round.
	Indexer SummaryIndexer
	Logger  *log.Logger
}

// NewEngine wires a conversation engine.
func NewEngine(store Store, provider llm.Provider, cat *catalog.Catalog, cfg EngineConfig) *Engine {
	titleModel := cfg.TitleModel
	if titleModel == "" {
		titleModel = cfg.Model
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:        store,
		provider:     provider,
		catalog:      cat,
		indexer:      cfg.Indexer,
		model:        cfg.Model,
		titleModel:   titleModel,
		strictResume: cfg.StrictResume,
		logger:       logger,
	}
}

// ResumeOrInit returns the working conversation for a turn. With an empty id
// it allocates a fresh in-memory conversation without touching the store.
// With an id it loads the stored document; an unknown id either starts fresh
// (lenient mode) or fails with ErrNotFound (strict mode).
func (e *Engine) ResumeOrInit(ctx context.Context, userID, topic, conversationID string) (*Conversation, error) {
	if _, err := e.catalog.Question(topic); err != nil {
		return nil, err
	}

	if conversationID == "" {
		return newConversation(userID, topic), nil
	}

	conv, err := e.store.FindByID(ctx, conversationID)
	if errors.Is(err, ErrNotFound) {
		if e.strictResume {
			return nil, err
		}
		e.logger.Warn("stale conversation id, starting fresh",
			"conversation_id", conversationID, "user_id", userID)
		return newConversation(userID, topic), nil
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// AppendTurn seeds the streams on the first turn, pushes the user turn onto
// all four streams in lockstep, and assigns the conversation its identity if
// it has none yet.
func (e *Engine) AppendTurn(ctx context.Context, conv *Conversation, userText string) error {
	if !conv.Seeded() {
		roles, err := BuildSystemRoles(e.catalog, conv.Topic)
		if err != nil {
			return err
		}
		conv.Questions = append(conv.Questions, roles.Question)
		conv.Summaries = append(conv.Summaries, roles.Summary)
		conv.Analyze = append(conv.Analyze, roles.Analyze)
		conv.Answers = append(conv.Answers, roles.Answers)
	}

	userTurn := Message{Role: RoleUser, Content: userText}
	conv.Questions = append(conv.Questions, userTurn)
	conv.Summaries = append(conv.Summaries, userTurn)
	conv.Analyze = append(conv.Analyze, userTurn)
	conv.Answers = append(conv.Answers, userTurn)

	if conv.ID == "" {
		if _, err := e.store.Insert(ctx, conv); err != nil {
			return err
		}
	}
	return nil
}

// RoundReplies holds the assistant reply produced for each stream in one
// completion round.
type RoundReplies struct {
	Question string `json:"question"`
	Summary  string `json:"summary"`
	Analyze  string `json:"analyze"`
	Answers  string `json:"answers"`
}

// ReplyFunc observes replies as they arrive during a round, before the round
// commits. Calls are serialized. Streaming consumers must tolerate replies
// from rounds that subsequently fail to persist.
type ReplyFunc func(stream string, content string)

// GenerateRound runs one completion per stream and appends the assistant
// replies. The analyze call runs concurrently; the answers call waits for
// the question and summary replies because its prompt embeds both. If any
// call fails, nothing is appended and nothing is persisted.
func (e *Engine) GenerateRound(ctx context.Context, conv *Conversation, onReply ReplyFunc) (RoundReplies, error) {
	var replies RoundReplies

	var mu sync.Mutex
	notify := func(stream, content string) {
		if onReply == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onReply(stream, content)
	}

	type analyzeResult struct {
		content string
		err     error
	}
	analyzeCh := make(chan analyzeResult, 1)
	go func() {
		content, err := e.complete(ctx, conv.Analyze)
		if err == nil {
			notify("analyze", content)
		}
		analyzeCh <- analyzeResult{content: content, err: err}
	}()
	// The analyze goroutine must always be drained, even on early return.
	defer func() {
		if analyzeCh != nil {
			<-analyzeCh
		}
	}()

	question, err := e.complete(ctx, conv.Questions)
	if err != nil {
		return replies, fmt.Errorf("generating question reply: %w", err)
	}
	notify("question", question)

	summary, err := e.complete(ctx, conv.Summaries)
	if err != nil {
		return replies, fmt.Errorf("generating summary reply: %w", err)
	}
	notify("summary", summary)

	// The directive rides along for this call only; the answers stream
	// itself keeps lockstep with the others.
	answersPrompt := make([]Message, 0, len(conv.Answers)+1)
	answersPrompt = append(answersPrompt, conv.Answers...)
	answersPrompt = append(answersPrompt, answersDirective(question, summary))
	answers, err := e.complete(ctx, answersPrompt)
	if err != nil {
		return replies, fmt.Errorf("generating answers reply: %w", err)
	}
	notify("answers", answers)

	analyze := <-analyzeCh
	analyzeCh = nil
	if analyze.err != nil {
		return replies, fmt.Errorf("generating analyze reply: %w", analyze.err)
	}

	conv.Questions = append(conv.Questions, Message{Role: RoleAssistant, Content: question})
	conv.Summaries = append(conv.Summaries, Message{Role: RoleAssistant, Content: summary})
	conv.Analyze = append(conv.Analyze, Message{Role: RoleAssistant, Content: analyze.content})
	conv.Answers = append(conv.Answers, Message{Role: RoleAssistant, Content: answers})

	if err := e.store.Update(ctx, conv); err != nil {
		return replies, err
	}

	if e.indexer != nil {
		if err := e.indexer.IndexSummaries(ctx, conv); err != nil {
			e.logger.Warn("summary indexing failed", "conversation_id", conv.ID, "err", err)
		}
	}

	replies = RoundReplies{
		Question: question,
		Summary:  summary,
		Analyze:  analyze.content,
		Answers:  answers,
	}
	return replies, nil
}

// TurnRequest is one user turn against a topic, optionally resuming an
// existing conversation.
type TurnRequest struct {
	UserID         string `json:"user_id"`
	Topic          string `json:"topic"`
	ConversationID string `json:"conversation_id,omitempty"`
	Prompt         string `json:"prompt"`
	// RegenerateTitle forces a fresh title from the round's summaries even
	// when one is already cached.
	RegenerateTitle bool `json:"regenerate_title,omitempty"`
}

// TurnResult is the outcome of a full turn: the (possibly newly assigned)
// conversation id plus one reply per stream.
type TurnResult struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title,omitempty"`
	RoundReplies
}

// Turn runs the full turn pipeline: resume or init, append, complete,
// persist.
func (e *Engine) Turn(ctx context.Context, req TurnRequest, onReply ReplyFunc) (*TurnResult, error) {
	conv, err := e.ResumeOrInit(ctx, req.UserID, req.Topic, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := e.AppendTurn(ctx, conv, req.Prompt); err != nil {
		return nil, err
	}
	replies, err := e.GenerateRound(ctx, conv, onReply)
	if err != nil {
		return nil, err
	}

	if req.RegenerateTitle {
		conv.Title = ""
		if _, err := e.Title(ctx, conv); err != nil {
			return nil, err
		}
	}
	return &TurnResult{ConversationID: conv.ID, Title: conv.Title, RoundReplies: replies}, nil
}

// Title returns the conversation's title, generating and persisting it from
// the assistant summaries on first request.
func (e *Engine) Title(ctx context.Context, conv *Conversation) (string, error) {
	if conv.Title != "" {
		return conv.Title, nil
	}

	summaries := conv.AssistantSummaries()
	if len(summaries) == 0 {
		return "", fmt.Errorf("conversation %s has no summaries to title", conv.ID)
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.titleModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: TitleDirective()},
			{Role: llm.RoleUser, Content: strings.Join(summaries, " ")},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating title: %w", err)
	}

	conv.Title = strings.TrimSpace(resp.Content)
	if err := e.store.Update(ctx, conv); err != nil {
		return "", err
	}
	return conv.Title, nil
}

func (e *Engine) complete(ctx context.Context, msgs []Message) (string, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:    e.model,
		Messages: toLLMMessages(msgs),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
