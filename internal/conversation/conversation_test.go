package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/db"
	"github.com/purposenavigator/self-analyzation/internal/llm"
)

// scriptedProvider answers each stream with a canned reply, identified by
// the system directive at the head of the prompt. It records every prompt it
// receives.
type scriptedProvider struct {
	mu     sync.Mutex
	calls  [][]llm.Message
	failOn string // substring of the system directive that should fail
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	msgs := make([]llm.Message, len(req.Messages))
	copy(msgs, req.Messages)
	p.calls = append(p.calls, msgs)
	p.mu.Unlock()

	head := ""
	if len(req.Messages) > 0 {
		head = req.Messages[0].Content
	}
	if p.failOn != "" && strings.Contains(head, p.failOn) {
		return nil, errors.New("scripted failure")
	}

	switch {
	case strings.Contains(head, "asks questions"):
		return &llm.CompletionResponse{Content: "question reply"}, nil
	case strings.Contains(head, "summarizes"):
		return &llm.CompletionResponse{Content: "summary reply"}, nil
	case strings.Contains(head, "Analyze the following"):
		return &llm.CompletionResponse{Content: "analyze reply"}, nil
	case strings.Contains(head, "generates several possible answers"):
		return &llm.CompletionResponse{Content: "answers reply"}, nil
	case strings.Contains(head, "title generation"):
		return &llm.CompletionResponse{Content: "A Title"}, nil
	}
	return &llm.CompletionResponse{Content: "reply"}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newTestEngine(t *testing.T, provider llm.Provider, strict bool) (*Engine, *SQLiteStore) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewSQLiteStore(database)
	engine := NewEngine(store, provider, catalog.New(), EngineConfig{
		Model:        "test-model",
		StrictResume: strict,
	})
	return engine, store
}

func TestTurnSeedsStreamsOnce(t *testing.T) {
	provider := &scriptedProvider{}
	engine, store := newTestEngine(t, provider, false)
	ctx := context.Background()

	result, err := engine.Turn(ctx, TurnRequest{
		UserID: "u1", Topic: "Test", Prompt: "hello",
	}, nil)
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if result.ConversationID == "" {
		t.Fatal("expected an assigned conversation id")
	}
	if result.Question != "question reply" || result.Summary != "summary reply" ||
		result.Analyze != "analyze reply" || result.Answers != "answers reply" {
		t.Fatalf("unexpected replies: %+v", result.RoundReplies)
	}

	conv, err := store.FindByID(ctx, result.ConversationID)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	// system + user + assistant after one round.
	for name, stream := range map[string][]Message{
		"questions": conv.Questions, "summaries": conv.Summaries,
		"analyze": conv.Analyze, "answers": conv.Answers,
	} {
		if len(stream) != 3 {
			t.Errorf("%s stream has %d messages, want 3", name, len(stream))
		}
		if stream[0].Role != RoleSystem || stream[1].Role != RoleUser || stream[2].Role != RoleAssistant {
			t.Errorf("%s stream roles out of order: %+v", name, stream)
		}
	}

	// Second turn must not reseed.
	_, err = engine.Turn(ctx, TurnRequest{
		UserID: "u1", Topic: "Test", ConversationID: result.ConversationID, Prompt: "more",
	}, nil)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	conv, err = store.FindByID(ctx, result.ConversationID)
	if err != nil {
		t.Fatalf("reloading conversation: %v", err)
	}
	if len(conv.Questions) != 5 {
		t.Fatalf("questions stream has %d messages after two rounds, want 5", len(conv.Questions))
	}
	systemCount := 0
	for _, m := range conv.Questions {
		if m.Role == RoleSystem {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Fatalf("questions stream has %d system messages, want 1", systemCount)
	}
}

func TestTurnUnknownTopic(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedProvider{}, false)

	_, err := engine.Turn(context.Background(), TurnRequest{
		UserID: "u1", Topic: "Nonsense", Prompt: "hello",
	}, nil)
	var invalid *catalog.InvalidTopicError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTopicError, got %v", err)
	}
	if invalid.Topic != "Nonsense" {
		t.Fatalf("error carries topic %q, want Nonsense", invalid.Topic)
	}
}

func TestRoundFailureCommitsNothing(t *testing.T) {
	provider := &scriptedProvider{failOn: "summarizes"}
	engine, store := newTestEngine(t, provider, false)
	ctx := context.Background()

	conv, err := engine.ResumeOrInit(ctx, "u1", "Test", "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := engine.AppendTurn(ctx, conv, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err = engine.GenerateRound(ctx, conv, nil)
	if err == nil {
		t.Fatal("expected round to fail")
	}

	// The appended user turn was persisted by AppendTurn, but no assistant
	// reply may be visible.
	stored, err := store.FindByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	for name, stream := range map[string][]Message{
		"questions": stored.Questions, "summaries": stored.Summaries,
		"analyze": stored.Analyze, "answers": stored.Answers,
	} {
		if len(stream) != 2 {
			t.Errorf("%s stream has %d messages, want 2 (system + user)", name, len(stream))
		}
		for _, m := range stream {
			if m.Role == RoleAssistant {
				t.Errorf("%s stream holds an assistant reply from a failed round", name)
			}
		}
	}
}

func TestAnswersPromptCarriesRoundContext(t *testing.T) {
	provider := &scriptedProvider{}
	engine, _ := newTestEngine(t, provider, false)

	_, err := engine.Turn(context.Background(), TurnRequest{
		UserID: "u1", Topic: "Test", Prompt: "hello",
	}, nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	provider.mu.Lock()
	defer provider.mu.Unlock()
	var answersPrompt []llm.Message
	for _, call := range provider.calls {
		if len(call) > 0 && strings.Contains(call[0].Content, "generates several possible answers") {
			answersPrompt = call
		}
	}
	if answersPrompt == nil {
		t.Fatal("no answers call recorded")
	}
	// system + user + injected round directive.
	if len(answersPrompt) != 3 {
		t.Fatalf("answers prompt has %d messages, want 3", len(answersPrompt))
	}
	last := answersPrompt[len(answersPrompt)-1].Content
	if !strings.Contains(last, "question reply") || !strings.Contains(last, "summary reply") {
		t.Fatalf("answers directive does not embed the round's question and summary: %q", last)
	}
}

func TestResumeStaleID(t *testing.T) {
	t.Run("lenient starts fresh", func(t *testing.T) {
		engine, _ := newTestEngine(t, &scriptedProvider{}, false)
		conv, err := engine.ResumeOrInit(context.Background(), "u1", "Test", "no-such-id")
		if err != nil {
			t.Fatalf("resume: %v", err)
		}
		if conv.ID != "" || conv.Seeded() {
			t.Fatalf("expected a fresh unpersisted conversation, got %+v", conv)
		}
	})

	t.Run("strict fails", func(t *testing.T) {
		engine, _ := newTestEngine(t, &scriptedProvider{}, true)
		_, err := engine.ResumeOrInit(context.Background(), "u1", "Test", "no-such-id")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUpdateVersionConflict(t *testing.T) {
	engine, store := newTestEngine(t, &scriptedProvider{}, false)
	ctx := context.Background()

	conv, err := engine.ResumeOrInit(ctx, "u1", "Test", "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := engine.AppendTurn(ctx, conv, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A concurrent writer advances the stored version.
	other, err := store.FindByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	other.Title = "taken"
	if err := store.Update(ctx, other); err != nil {
		t.Fatalf("concurrent update: %v", err)
	}

	conv.Title = "stale write"
	if err := store.Update(ctx, conv); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestTitleGeneratedOnceAndPersisted(t *testing.T) {
	provider := &scriptedProvider{}
	engine, store := newTestEngine(t, provider, false)
	ctx := context.Background()

	result, err := engine.Turn(ctx, TurnRequest{UserID: "u1", Topic: "Test", Prompt: "hello"}, nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	conv, err := store.FindByID(ctx, result.ConversationID)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	title, err := engine.Title(ctx, conv)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != "A Title" {
		t.Fatalf("title = %q, want A Title", title)
	}

	before := provider.callCount()
	reloaded, err := store.FindByID(ctx, result.ConversationID)
	if err != nil {
		t.Fatalf("reloading conversation: %v", err)
	}
	if _, err := engine.Title(ctx, reloaded); err != nil {
		t.Fatalf("second title: %v", err)
	}
	if provider.callCount() != before {
		t.Fatal("cached title triggered another completion call")
	}
}

func TestTurnRegenerateTitle(t *testing.T) {
	provider := &scriptedProvider{}
	engine, store := newTestEngine(t, provider, false)
	ctx := context.Background()

	first, err := engine.Turn(ctx, TurnRequest{UserID: "u1", Topic: "Test", Prompt: "hello"}, nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if first.Title != "" {
		t.Fatalf("title generated without regenerate_title: %q", first.Title)
	}

	second, err := engine.Turn(ctx, TurnRequest{
		UserID:          "u1",
		Topic:           "Test",
		ConversationID:  first.ConversationID,
		Prompt:          "more",
		RegenerateTitle: true,
	}, nil)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.Title != "A Title" {
		t.Fatalf("title = %q, want A Title", second.Title)
	}

	conv, err := store.FindByID(ctx, first.ConversationID)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	if conv.Title != "A Title" {
		t.Fatalf("persisted title = %q, want A Title", conv.Title)
	}
}

func TestSetAnalysisSummaryKeepsSiblings(t *testing.T) {
	engine, store := newTestEngine(t, &scriptedProvider{}, false)
	ctx := context.Background()

	conv, err := engine.ResumeOrInit(ctx, "u1", "Test", "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := engine.AppendTurn(ctx, conv, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}

	first := AnalysisRecord{RawText: "first", CreatedAt: time.Now().UTC()}
	second := AnalysisRecord{RawText: "second", CreatedAt: time.Now().UTC().Add(time.Second)}
	if err := store.SetAnalysisSummary(ctx, conv.ID, "aaa", first); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := store.SetAnalysisSummary(ctx, conv.ID, "bbb", second); err != nil {
		t.Fatalf("second set: %v", err)
	}

	stored, err := store.FindByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	if len(stored.AnalysisSummaries) != 2 {
		t.Fatalf("analysis summaries has %d entries, want 2", len(stored.AnalysisSummaries))
	}
	if stored.AnalysisSummaries["aaa"].RawText != "first" {
		t.Fatalf("first entry clobbered: %+v", stored.AnalysisSummaries["aaa"])
	}
	latest, ok := stored.LatestAnalysis()
	if !ok || latest.RawText != "second" {
		t.Fatalf("latest analysis = %+v, want second", latest)
	}
}

func TestListWithStreams(t *testing.T) {
	provider := &scriptedProvider{}
	engine, store := newTestEngine(t, provider, false)
	ctx := context.Background()

	// One full conversation for u1, one empty for u1, one for u2.
	r1, err := engine.Turn(ctx, TurnRequest{UserID: "u1", Topic: "Test", Prompt: "hello"}, nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	empty := newConversation("u1", "Test")
	if _, err := store.Insert(ctx, empty); err != nil {
		t.Fatalf("inserting empty conversation: %v", err)
	}
	if _, err := engine.Turn(ctx, TurnRequest{UserID: "u2", Topic: "Test", Prompt: "hi"}, nil); err != nil {
		t.Fatalf("turn for u2: %v", err)
	}

	list, err := store.ListWithStreams(ctx, "u1")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("listing returned %d conversations, want 1", len(list))
	}
	if list[0].ID != r1.ConversationID {
		t.Fatalf("listing returned %s, want %s", list[0].ID, r1.ConversationID)
	}
}
