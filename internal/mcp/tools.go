package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listTopicsTool defines the list_topics MCP tool.
var listTopicsTool = mcp.NewTool("list_topics",
	mcp.WithDescription("List the reflection topics and their canonical prompt questions."),
)

// getConversationAnalysisTool defines the get_conversation_analysis MCP tool.
var getConversationAnalysisTool = mcp.NewTool("get_conversation_analysis",
	mcp.WithDescription("Get the structured values analysis for a conversation. Computes and caches it if the conversation's summaries changed since the last analysis."),
	mcp.WithString("conversation_id",
		mcp.Required(),
		mcp.Description("The conversation to analyze"),
	),
)

// getValuesProfileTool defines the get_values_profile MCP tool.
var getValuesProfileTool = mcp.NewTool("get_values_profile",
	mcp.WithDescription("Get a user's aggregated values profile: attributes consolidated across all their conversations, ranked by relevance and labeled high/medium/low."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user whose profile to build"),
	),
)
