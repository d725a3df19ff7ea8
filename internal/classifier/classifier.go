// Package classifier maps a free-text maintenance request onto one category
// of the work-request taxonomy using a text-generation model.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/taxonomy"
)

// NoMatchSentinel is the answer the model is told to give when nothing fits.
const NoMatchSentinel = "NO_MATCH"

// Routing reasons reported with needsManualReview.
const (
	ReasonServiceUnavailable = "AI service unavailable"
	ReasonNoMatch            = "No matching category found"
)

// DefaultPrompt is the instruction template sent to the model.
const DefaultPrompt = `You are a facilities management AI assistant. Classify the following maintenance request into one of the predefined categories.

Available Categories:
{{range .Categories}}- {{.}}
{{end}}
Maintenance Request: "{{.Description}}"
Location: {{.Location}}

Respond with ONLY the exact category name from the list above that best matches this request. If no category is a good match, respond with "{{.NoMatch}}".

Category:`

type promptData struct {
	Categories  []string
	Description string
	Location    string
	NoMatch     string
}

// Classifier turns a description and location into a ClassificationResult.
type Classifier struct {
	taxonomy  taxonomy.Taxonomy
	generator Generator
	prompt    *template.Template
	logger    *zap.Logger
}

// New builds a classifier with the default prompt.
func New(tax taxonomy.Taxonomy, generator Generator, logger *zap.Logger) *Classifier {
	c, err := NewWithPrompt(tax, generator, DefaultPrompt, logger)
	if err != nil {
		panic(fmt.Sprintf("classifier: default prompt: %v", err))
	}
	return c
}

// NewWithPrompt builds a classifier from a custom text/template prompt.
func NewWithPrompt(tax taxonomy.Taxonomy, generator Generator, prompt string, logger *zap.Logger) (*Classifier, error) {
	tmpl, err := template.New("classify").Option("missingkey=error").Parse(prompt)
	if err != nil {
		return nil, fmt.Errorf("parse classification prompt: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{taxonomy: tax, generator: generator, prompt: tmpl, logger: logger}, nil
}

// BuildPrompt renders the instruction prompt for a request. Output depends
// only on the taxonomy and the inputs.
func (c *Classifier) BuildPrompt(description, location string) (string, error) {
	var sb strings.Builder
	err := c.prompt.Execute(&sb, promptData{
		Categories:  c.taxonomy.Categories(),
		Description: description,
		Location:    location,
		NoMatch:     NoMatchSentinel,
	})
	if err != nil {
		return "", fmt.Errorf("render classification prompt: %w", err)
	}
	return sb.String(), nil
}

// Classify calls the generator once and validates its answer against the
// taxonomy. An unavailable model is a routing signal, not a failure;
// Success is false only for internal errors.
func (c *Classifier) Classify(ctx context.Context, description, location string) (result domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classification panicked", zap.Any("panic", r))
			result = domain.ClassificationResult{Success: false, Error: fmt.Sprint(r)}
		}
	}()

	c.logger.Info("classifying request", zap.String("location", location), zap.String("description", description))

	prompt, err := c.BuildPrompt(description, location)
	if err != nil {
		c.logger.Error("classification failed", zap.Error(err))
		return domain.ClassificationResult{Success: false, Error: err.Error()}
	}

	response, err := c.generator.Generate(ctx, prompt)
	if err != nil || response == "" {
		c.logger.Warn("no response from model; flagging for manual review", zap.Error(err))
		return domain.ClassificationResult{
			Success:           true,
			NeedsManualReview: true,
			Reason:            ReasonServiceUnavailable,
		}
	}

	category := strings.TrimSpace(response)
	if category == NoMatchSentinel || !c.taxonomy.Contains(category) {
		c.logger.Info("no matching category; flagging for manual review", zap.String("answer", category))
		return domain.ClassificationResult{
			Success:           true,
			NeedsManualReview: true,
			Reason:            ReasonNoMatch,
		}
	}

	c.logger.Info("matched category", zap.String("category", category))
	return domain.ClassificationResult{Success: true, Category: &category}
}
