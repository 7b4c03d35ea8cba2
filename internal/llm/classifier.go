package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stillhq/still/internal/forum"
	"github.com/stillhq/still/internal/freshness"
)

// Classification is the classifier's output: a question category with its
// derived freshness window, plus informational confidence and reasoning.
type Classification struct {
	QuestionType forum.QuestionType `json:"question_type"`
	WindowDays   int                `json:"freshness_window_days"`
	Confidence   float64            `json:"confidence"`
	Reasoning    string             `json:"reasoning"`
}

// Classifier assigns a question category to new threads. The LLM is optional:
// when it is missing, slow, or wrong-shaped, keyword heuristics take over, so
// Classify never fails.
type Classifier struct {
	client  Client
	timeout time.Duration
}

// NewClassifier creates a Classifier. client may be nil for heuristics-only mode.
func NewClassifier(client Client) *Classifier {
	return &Classifier{client: client, timeout: 8 * time.Second}
}

// Classify determines the question category for a new thread.
func (c *Classifier) Classify(ctx context.Context, title, content string) Classification {
	if c.client == nil {
		return classifyHeuristic(title, content)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.classifyWithLLM(ctx, title, content)
	if err != nil {
		log.Printf("classifier: llm failed, using heuristics: %v", err)
		return classifyHeuristic(title, content)
	}
	return result
}

// ThreadMetadata converts a classification into a thread's extendedData.
func (cl Classification) ThreadMetadata() *forum.ThreadMetadata {
	return &forum.ThreadMetadata{
		QuestionType:             cl.QuestionType,
		WindowDays:               cl.WindowDays,
		ClassificationConfidence: cl.Confidence,
		ClassificationReason:     cl.Reasoning,
	}
}

func (c *Classifier) classifyWithLLM(ctx context.Context, title, content string) (Classification, error) {
	resp, err := c.client.Complete(ctx, ClassificationPrompt(title, content))
	if err != nil {
		return Classification{}, fmt.Errorf("classification llm: %w", err)
	}

	var parsed struct {
		QuestionType string  `json:"question_type"`
		Confidence   float64 `json:"confidence"`
		Reasoning    string  `json:"reasoning"`
	}
	if err := decodeJSONObject(resp.Content, &parsed); err != nil {
		return Classification{}, fmt.Errorf("parse classification: %w", err)
	}

	qt := forum.StableConcept // safe fallback for off-enum answers
	if forum.ValidQuestionType(parsed.QuestionType) {
		qt = forum.QuestionType(parsed.QuestionType)
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}
	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "Classification based on content analysis"
	}

	return Classification{
		QuestionType: qt,
		WindowDays:   freshness.WindowDays(qt),
		Confidence:   confidence,
		Reasoning:    reasoning,
	}, nil
}

var (
	techKeywords = []string{
		"react", "next.js", "nextjs", "api", "framework", "library",
		"deployment", "version", "update", "latest", "new",
		"typescript", "javascript", "css", "tailwind",
	}
	stableKeywords = []string{
		"algorithm", "data structure", "theory", "concept", "principle",
		"pattern", "architecture", "design",
	}
	opinionKeywords = []string{
		"best", "better", "should i", "recommend", "prefer", "favorite", "vs", "or",
	}
)

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

// classifyHeuristic is the keyword fallback used whenever the LLM is out of play.
func classifyHeuristic(title, content string) Classification {
	combined := strings.ToLower(title + " " + content)

	techScore := countMatches(combined, techKeywords)
	stableScore := countMatches(combined, stableKeywords)
	opinionScore := countMatches(combined, opinionKeywords)

	qt := forum.StableConcept
	confidence := 0.6

	switch {
	case techScore > stableScore && techScore > opinionScore:
		qt = forum.FastChangingTech
		confidence = 0.7
	case opinionScore > techScore && opinionScore > stableScore:
		qt = forum.Opinion
		confidence = 0.65
	case stableScore > 0:
		qt = forum.StableConcept
		confidence = 0.7
	default:
		// A tech forum's unclassifiable questions skew fast-changing.
		qt = forum.FastChangingTech
		confidence = 0.5
	}

	return Classification{
		QuestionType: qt,
		WindowDays:   freshness.WindowDays(qt),
		Confidence:   confidence,
		Reasoning:    "Classified using keyword heuristics",
	}
}

// decodeJSONObject extracts a JSON object from an LLM response. The response
// might contain markdown code fences or other wrapper text.
func decodeJSONObject(content string, out any) error {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}

	return json.Unmarshal([]byte(content[start:end+1]), out)
}
