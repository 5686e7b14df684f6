package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/purposenavigator/self-analyzation/internal/analysis"
	"github.com/purposenavigator/self-analyzation/internal/conversation"
)

// handleListTopics returns the fixed topic catalog.
func (s *Server) handleListTopics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	topics := s.catalog.Topics()
	sb.WriteString(fmt.Sprintf("%d reflection topics:\n", len(topics)))
	for _, t := range topics {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n   %s\n", t.ID, t.Name, t.Question))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetConversationAnalysis fetches (or computes) the content-addressed
// analysis for one conversation.
func (s *Server) handleGetConversationAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: conversation_id"), nil
	}

	rec, err := s.analysis.GetOrCompute(ctx, conversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("conversation %q not found", conversationID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(rec.RawText)
	if len(rec.Values) > 0 {
		sb.WriteString(fmt.Sprintf("\n\n%d structured values:\n", len(rec.Values)))
		for _, v := range rec.Values {
			sb.WriteString(fmt.Sprintf("- %s (%s, %s): %s\n",
				v.Attribute, v.Evaluation.Label, v.Evaluation.Percentage, v.Explanation))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetValuesProfile builds the aggregated profile for a user.
func (s *Server) handleGetValuesProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	profile, err := s.analysis.UserProfile(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("profile failed: %v", err)), nil
	}

	if len(profile) == 0 {
		return mcp.NewToolResultText("No analyzed conversations for this user yet. Run a few reflection turns and fetch their analyses first."), nil
	}

	return mcp.NewToolResultText(formatProfile(profile)), nil
}

// formatProfile converts a labeled profile into a rich text format optimized
// for AI agent consumption.
func formatProfile(profile []analysis.LabeledAttribute) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Values profile, %d attributes:\n", len(profile)))

	for i, row := range profile {
		sb.WriteString(fmt.Sprintf("\n--- %d. %s [%s] ---\n", i+1, row.Attribute, row.Label))
		sb.WriteString(fmt.Sprintf("Mentions: %d | Mean confidence: %.1f | Relevance score: %.1f\n",
			row.Count, row.Mean, row.RelevanceScore))
		if row.Explanation != "" {
			sb.WriteString(row.Explanation + "\n")
		}
	}
	return sb.String()
}
