package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/conversation"
	"github.com/purposenavigator/self-analyzation/internal/db"
	"github.com/purposenavigator/self-analyzation/internal/llm"
)

const analysisReply = `The individual shows a strong developmental streak.

1. Growth - Commitment to personal development - {high: 90%}
2. Authenticity - Being true to themselves - {high: 85%.}
3. Harmony - Seeking balance with others - {medium: 75%}`

func TestParseRoundTrip(t *testing.T) {
	values, err := Parse(analysisReply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("parsed %d records, want 3", len(values))
	}

	first := values[0]
	if first.Attribute != "Growth" {
		t.Errorf("attribute = %q, want Growth (index stripped)", first.Attribute)
	}
	if first.Explanation != "Commitment to personal development" {
		t.Errorf("explanation = %q", first.Explanation)
	}
	if first.Evaluation.Label != "high" || first.Evaluation.Percentage != "90%" {
		t.Errorf("evaluation = %+v", first.Evaluation)
	}

	// Trailing period after the percentage is stripped, the % sign stays.
	if values[1].Evaluation.Percentage != "85%" {
		t.Errorf("percentage = %q, want 85%%", values[1].Evaluation.Percentage)
	}
}

func TestParseLeniency(t *testing.T) {
	for _, input := range []string{"", "just prose, no numbers", "conclusion\n\nmore prose"} {
		values, err := Parse(input)
		if err != nil {
			t.Errorf("parse(%q) returned error: %v", input, err)
		}
		if len(values) != 0 {
			t.Errorf("parse(%q) returned %d records, want 0", input, len(values))
		}
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"1. Growth - missing evaluation part",
		"1. Growth - Explanation - extra - {high: 90%}",
		"1. Growth - Explanation - {high 90%}",
	}
	for _, input := range cases {
		_, err := Parse(input)
		var malformed *MalformedLineError
		if !errors.As(err, &malformed) {
			t.Errorf("parse(%q) = %v, want MalformedLineError", input, err)
		}
	}
}

func TestConsolidateArithmetic(t *testing.T) {
	records := []conversation.AttributeExplanation{
		{Attribute: "Growth", Explanation: "first", Evaluation: conversation.Evaluation{Label: "high", Percentage: "85%"}},
		{Attribute: "Growth", Explanation: "second", Evaluation: conversation.Evaluation{Label: "high", Percentage: "90%."}},
		{Attribute: "Growth", Explanation: "third", Evaluation: conversation.Evaluation{Label: "high", Percentage: "90%"}},
	}

	out, err := Consolidate(records)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("consolidated into %d rows, want 1", len(out))
	}

	row := out[0]
	if row.Count != 3 {
		t.Errorf("count = %d, want 3", row.Count)
	}
	if math.Abs(row.Mean-88.3333333) > 0.001 {
		t.Errorf("mean = %f, want 88.333", row.Mean)
	}
	if math.Abs(row.RelevanceScore-210.789335) > 0.001 {
		t.Errorf("relevance score = %f, want 210.789", row.RelevanceScore)
	}
	if row.Explanation != "first" {
		t.Errorf("explanation = %q, want the first occurrence", row.Explanation)
	}
}

func TestConsolidateExactStringGrouping(t *testing.T) {
	records := []conversation.AttributeExplanation{
		{Attribute: "Growth", Evaluation: conversation.Evaluation{Percentage: "80%"}},
		{Attribute: "growth", Evaluation: conversation.Evaluation{Percentage: "90%"}},
	}
	out, err := Consolidate(records)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("case-differing attributes merged: %d rows, want 2", len(out))
	}
}

func TestLabelTiers(t *testing.T) {
	rows := []ConsolidatedAttribute{
		{Attribute: "Growth", RelevanceScore: 210.7893},
		{Attribute: "Sustainability", RelevanceScore: 160.849},
		{Attribute: "Nature", RelevanceScore: 152.383},
		{Attribute: "Nature2", RelevanceScore: 143.918},
		{Attribute: "Authenticity", RelevanceScore: 143.918},
		{Attribute: "Truth", RelevanceScore: 143.918},
		{Attribute: "Life", RelevanceScore: 135.452},
		{Attribute: "Connection", RelevanceScore: 135.452},
		{Attribute: "Harmony", RelevanceScore: 126.986},
		{Attribute: "Mindfulness", RelevanceScore: 126.986},
		{Attribute: "Connection2", RelevanceScore: 118.520},
		{Attribute: "Community", RelevanceScore: 118.520},
		{Attribute: "Adventure", RelevanceScore: 118.520},
		{Attribute: "Stability", RelevanceScore: 110.055},
	}

	labeled := Label(rows)
	if len(labeled) != 14 {
		t.Fatalf("labeled %d rows, want 14", len(labeled))
	}
	wantLabels := []string{
		"high", "high", "high", "high", "high", "high",
		"medium", "medium", "medium", "medium",
		"low", "low", "low", "low",
	}
	for i, want := range wantLabels {
		if labeled[i].Label != want {
			t.Errorf("row %d (%s, %.3f): label = %q, want %q",
				i, labeled[i].Attribute, labeled[i].RelevanceScore, labeled[i].Label, want)
		}
	}
	for i := 1; i < len(labeled); i++ {
		if labeled[i].RelevanceScore > labeled[i-1].RelevanceScore {
			t.Fatalf("output not sorted descending at row %d", i)
		}
	}
}

func TestLabelSingleRow(t *testing.T) {
	labeled := Label([]ConsolidatedAttribute{{Attribute: "Growth", RelevanceScore: 42}})
	if len(labeled) != 1 || labeled[0].Label != "high" {
		t.Fatalf("single row labeled %+v, want high", labeled)
	}
}

// countingProvider always returns the fixed analysis reply and counts calls.
type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return &llm.CompletionResponse{Content: analysisReply}, nil
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestService(t *testing.T, provider llm.Provider) (*Service, *conversation.SQLiteStore) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := conversation.NewSQLiteStore(database)
	return NewService(store, provider, catalog.New(), "test-model", nil), store
}

func insertConversation(t *testing.T, store *conversation.SQLiteStore, userID string, summaries []string) string {
	t.Helper()
	conv := &conversation.Conversation{
		UserID: userID,
		Topic:  "Test",
		Status: conversation.StatusActive,
		Questions: []conversation.Message{
			{Role: conversation.RoleSystem, Content: "seed"},
			{Role: conversation.RoleUser, Content: "hello"},
		},
	}
	for _, s := range summaries {
		conv.Summaries = append(conv.Summaries, conversation.Message{
			Role: conversation.RoleAssistant, Content: s,
		})
	}
	id, err := store.Insert(context.Background(), conv)
	if err != nil {
		t.Fatalf("inserting conversation: %v", err)
	}
	return id
}

func TestGetOrComputeIdempotent(t *testing.T) {
	provider := &countingProvider{}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	id := insertConversation(t, store, "u1", []string{"summary one", "summary two"})

	first, err := svc.GetOrCompute(ctx, id)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.RawText != strings.TrimSpace(analysisReply) {
		t.Fatalf("raw text = %q", first.RawText)
	}
	if len(first.Values) != 3 {
		t.Fatalf("parsed %d values, want 3", len(first.Values))
	}

	second, err := svc.GetOrCompute(ctx, id)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.RawText != first.RawText || len(second.Values) != len(first.Values) {
		t.Fatal("cache hit returned different record")
	}
	if provider.callCount() != 1 {
		t.Fatalf("gateway called %d times, want 1", provider.callCount())
	}
}

func TestDigestSensitivity(t *testing.T) {
	base := Digest([]string{"summary one"})
	if Digest([]string{"summary one"}) != base {
		t.Fatal("digest is not deterministic")
	}
	if Digest([]string{"summary one", "summary two"}) == base {
		t.Fatal("appending a summary did not change the digest")
	}
}

func TestGetOrComputeRecomputesAfterNewSummary(t *testing.T) {
	provider := &countingProvider{}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	id := insertConversation(t, store, "u1", []string{"summary one"})
	if _, err := svc.GetOrCompute(ctx, id); err != nil {
		t.Fatalf("first call: %v", err)
	}

	conv, err := store.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	conv.Summaries = append(conv.Summaries, conversation.Message{
		Role: conversation.RoleAssistant, Content: "summary two",
	})
	if err := store.Update(ctx, conv); err != nil {
		t.Fatalf("updating conversation: %v", err)
	}

	if _, err := svc.GetOrCompute(ctx, id); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if provider.callCount() != 2 {
		t.Fatalf("gateway called %d times, want 2 (new content state)", provider.callCount())
	}

	stored, err := store.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("reloading conversation: %v", err)
	}
	if len(stored.AnalysisSummaries) != 2 {
		t.Fatalf("cache holds %d entries, want 2", len(stored.AnalysisSummaries))
	}
}

func TestGetOrComputeNotFound(t *testing.T) {
	svc, _ := newTestService(t, &countingProvider{})
	_, err := svc.GetOrCompute(context.Background(), "no-such-id")
	if !errors.Is(err, conversation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshKeywordsExtendsCache(t *testing.T) {
	provider := &countingProvider{}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	conv := &conversation.Conversation{
		UserID: "u1",
		Topic:  "Test",
		Status: conversation.StatusActive,
		Analyze: []conversation.Message{
			{Role: conversation.RoleSystem, Content: "seed"},
			{Role: conversation.RoleAssistant, Content: "reply one"},
			{Role: conversation.RoleAssistant, Content: "reply two"},
		},
		Keywords: []string{"cached one"},
	}
	id, err := store.Insert(ctx, conv)
	if err != nil {
		t.Fatalf("inserting conversation: %v", err)
	}

	keywords, err := svc.RefreshKeywords(ctx, id)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(keywords) != 2 {
		t.Fatalf("got %d keywords, want 2", len(keywords))
	}
	if keywords[0] != "cached one" {
		t.Fatalf("cached keyword clobbered: %q", keywords[0])
	}
	if provider.callCount() != 1 {
		t.Fatalf("gateway called %d times, want 1 (only the missing reply)", provider.callCount())
	}

	// A second refresh with nothing missing makes no calls.
	if _, err := svc.RefreshKeywords(ctx, id); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if provider.callCount() != 1 {
		t.Fatalf("gateway called %d times after no-op refresh, want 1", provider.callCount())
	}
}

func TestUserProfileAggregatesLatestPerConversation(t *testing.T) {
	provider := &countingProvider{}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	id1 := insertConversation(t, store, "u1", []string{"summary a"})
	id2 := insertConversation(t, store, "u1", []string{"summary b"})
	// A conversation without any cached analysis is skipped.
	insertConversation(t, store, "u1", []string{"summary c"})

	if _, err := svc.GetOrCompute(ctx, id1); err != nil {
		t.Fatalf("analysis for first conversation: %v", err)
	}
	if _, err := svc.GetOrCompute(ctx, id2); err != nil {
		t.Fatalf("analysis for second conversation: %v", err)
	}

	profile, err := svc.UserProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	// Each analysis contributes Growth, Authenticity, Harmony; two
	// conversations double every count.
	if len(profile) != 3 {
		t.Fatalf("profile has %d rows, want 3", len(profile))
	}
	if profile[0].Attribute != "Growth" {
		t.Fatalf("top attribute = %q, want Growth", profile[0].Attribute)
	}
	for _, row := range profile {
		if row.Count != 2 {
			t.Errorf("attribute %s count = %d, want 2", row.Attribute, row.Count)
		}
	}
	if profile[0].Label != "high" {
		t.Fatalf("top label = %q, want high", profile[0].Label)
	}
}

func TestUserProfileEmpty(t *testing.T) {
	svc, _ := newTestService(t, &countingProvider{})
	profile, err := svc.UserProfile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(profile) != 0 {
		t.Fatalf("profile has %d rows, want 0", len(profile))
	}
}
