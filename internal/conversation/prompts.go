package conversation

import (
	"fmt"
	"strings"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/llm"
)

// SystemRoles holds the four system directives that seed a conversation's
// message streams.
type SystemRoles struct {
	Question Message
	Summary  Message
	Analyze  Message
	Answers  Message
}

// adviserDirective is the values-analysis directive shared by the analyze
// stream and the cached analysis service. Its output grammar (numbered list,
// hyphen-separated, {label: percentage} tag, no closing prose) is what the
// analysis parser consumes, so the wording must stay in sync with the parser.
const adviserDirective = `
Analyze the following individual's priorities and values based on their actions and context. Below is a list of attributes. Based on the information provided, determine which attributes align with the individual's authentic values. The text should be structured with a paragraph summarizing the result of the analysis, followed by an ordered list explaining how each attribute applies to them. After the explanation, include a tag (high, medium, or low) with a percentage indicating the relevance of the attribute to the individual. form ist the following, {tag: percentage}. The label decides how the value is relevant to the sentence which you analyze. The form of the list following: {number}. attribute - explanation - label. Please saparate by hyphen. Do not add conclusion sentences.

Here are the attributes to consider: %s, etc."
`

// titleDirective drives lazy title generation from a conversation's
// summaries.
const titleDirective = "You are a title generation assistant. Your task is to read through a set of sentences provided by the user and create a concise, compelling, and relevant title that captures the main theme or purpose of the sentences. Ensure that the title is engaging and aligns with the content, using language that is clear and impactful. Avoid using overly complex or ambiguous words, and aim for a length of no more than 8-10 words unless otherwise specified. The title should not contain any double quotes."

// AdviserDirective renders the values-analysis directive with the full
// attribute list from the catalog.
func AdviserDirective(cat *catalog.Catalog) string {
	return fmt.Sprintf(adviserDirective, strings.Join(cat.AttributeNames(), ", "))
}

// TitleDirective returns the system directive for title generation.
func TitleDirective() string {
	return titleDirective
}

func questionRole(primaryQuestion string) string {
	return fmt.Sprintf("You are an assistant that asks questions to guide the user to reflect on their values. The question is the first question:'%s'", primaryQuestion)
}

func summaryRole(primaryQuestion string) string {
	return fmt.Sprintf("You are an assistant that summarizes the user's responses to the question: '%s'", primaryQuestion)
}

func answersRole(primaryQuestion string) string {
	return fmt.Sprintf("You are an assistant that generates several possible answers which the user might answer to the question: '%s'.\nExpress the answers as json objects. Please add title and answer\n", primaryQuestion)
}

// BuildSystemRoles builds the four stream directives for a topic. Returns a
// catalog.InvalidTopicError when the topic is not in the topic map.
func BuildSystemRoles(cat *catalog.Catalog, topic string) (SystemRoles, error) {
	question, err := cat.Question(topic)
	if err != nil {
		return SystemRoles{}, err
	}
	return SystemRoles{
		Question: Message{Role: RoleSystem, Content: questionRole(question)},
		Summary:  Message{Role: RoleSystem, Content: summaryRole(question)},
		Analyze:  Message{Role: RoleSystem, Content: AdviserDirective(cat)},
		Answers:  Message{Role: RoleSystem, Content: answersRole(question)},
	}, nil
}

// answersDirective builds the extra message injected into the answers stream
// prompt for one completion round. It puts the model in the user's shoes,
// anchored to the question and summary the round just produced. The message
// is used for the gateway call only and never appended to the stream.
func answersDirective(latestQuestion, latestSummary string) Message {
	content := fmt.Sprintf(
		"Imagine you are the user. Considering the assistant's latest question: '%s' and the summary of the user's responses so far: '%s', suggest several plausible answers the user might give next.",
		latestQuestion, latestSummary,
	)
	return Message{Role: RoleSystem, Content: content}
}

// toLLMMessages converts a stream to the gateway's message type.
func toLLMMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{Role: llm.Role(m.Role), Content: m.Content}
	}
	return out
}
