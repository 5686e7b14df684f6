// Package analysis turns raw values-analysis model output into structured
// records, caches them by content digest, and consolidates them into a
// ranked per-user profile.
package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/purposenavigator/self-analyzation/internal/conversation"
)

// MalformedLineError reports a numbered line that does not follow the
// analysis output grammar. It means the model broke the prompt contract, so
// callers should treat the whole analysis as retryable.
type MalformedLineError struct {
	Line string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed analysis line: %s", e.Line)
}

var (
	numberedLine = regexp.MustCompile(`^\d+\.`)
	indexPrefix  = regexp.MustCompile(`^\d+\.\s*`)
)

// Parse extracts attribute records from a values-analysis reply. The grammar
// per line is:
//
//	<index>. <attribute> - <explanation> - {<label>: <percentage>}
//
// Lines without a leading numeric index are prose and skipped. A numbered
// line that does not split into exactly three hyphen-separated parts, or
// whose evaluation is not a single {label: percentage} pair, fails with
// MalformedLineError. Empty input yields an empty list.
func Parse(raw string) ([]conversation.AttributeExplanation, error) {
	var out []conversation.AttributeExplanation
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !numberedLine.MatchString(line) {
			continue
		}

		parts := strings.Split(line, " - ")
		if len(parts) != 3 {
			return nil, &MalformedLineError{Line: line}
		}

		attribute := indexPrefix.ReplaceAllString(strings.TrimSpace(parts[0]), "")
		explanation := strings.TrimSpace(parts[1])

		eval := strings.TrimSpace(parts[2])
		eval = strings.ReplaceAll(eval, "{", "")
		eval = strings.ReplaceAll(eval, "}", "")
		evalParts := strings.Split(eval, ":")
		if len(evalParts) != 2 {
			return nil, &MalformedLineError{Line: line}
		}

		label := strings.TrimSpace(evalParts[0])
		percentage := strings.TrimSuffix(strings.TrimSpace(evalParts[1]), ".")

		out = append(out, conversation.AttributeExplanation{
			Attribute:   attribute,
			Explanation: explanation,
			Evaluation: conversation.Evaluation{
				Label:      label,
				Percentage: percentage,
			},
		})
	}
	return out, nil
}
