// Package catalog holds the fixed value-attribute definitions and the topic
// map that seed every conversation. Both are loaded once at startup and
// injected; nothing mutates them at runtime.
package catalog

import "fmt"

// Attribute is a named personal value with a short explanation.
type Attribute struct {
	Name        string `json:"attribute"`
	Explanation string `json:"explanation"`
}

// Topic is a reflection topic with its canonical prompt question.
type Topic struct {
	ID       int    `json:"id"`
	Name     string `json:"title"`
	Question string `json:"explanation"`
}

// InvalidTopicError reports a topic key that is not part of the topic map.
type InvalidTopicError struct {
	Topic string
}

func (e *InvalidTopicError) Error() string {
	return fmt.Sprintf("invalid topic: %s", e.Topic)
}

// Catalog is the process-wide read-only configuration of attributes and topics.
type Catalog struct {
	attributes []Attribute
	topics     []topicEntry
	questions  map[string]string
}

type topicEntry struct {
	name     string
	question string
}

// New builds the catalog from the built-in attribute and topic tables.
func New() *Catalog {
	questions := make(map[string]string, len(topics))
	for _, t := range topics {
		questions[t.name] = t.question
	}
	return &Catalog{
		attributes: attributes,
		topics:     topics,
		questions:  questions,
	}
}

// Attributes returns all attribute definitions in declaration order.
func (c *Catalog) Attributes() []Attribute {
	out := make([]Attribute, len(c.attributes))
	copy(out, c.attributes)
	return out
}

// AttributeNames returns the attribute names in declaration order.
func (c *Catalog) AttributeNames() []string {
	names := make([]string, len(c.attributes))
	for i, a := range c.attributes {
		names[i] = a.Name
	}
	return names
}

// HasAttribute reports whether name is a catalog attribute. Matching is
// case-sensitive and exact.
func (c *Catalog) HasAttribute(name string) bool {
	for _, a := range c.attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Question returns the canonical prompt question for a topic, or an
// InvalidTopicError if the topic is unknown.
func (c *Catalog) Question(topic string) (string, error) {
	q, ok := c.questions[topic]
	if !ok {
		return "", &InvalidTopicError{Topic: topic}
	}
	return q, nil
}

// Topics lists all topics in declaration order with 1-based ids.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	for i, t := range c.topics {
		out[i] = Topic{ID: i + 1, Name: t.name, Question: t.question}
	}
	return out
}
