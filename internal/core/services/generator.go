package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// NoContextAnswer is returned, ungrounded, when the context is empty or
// the model reports that the context does not contain the answer.
const NoContextAnswer = "The information is not available in the emails."

// DefaultMaxAnswerTokens caps answer length when none is configured.
const DefaultMaxAnswerTokens = 512

var _ driven.PromptStoreAware = (*Generator)(nil)

// Generator produces answers grounded in an assembled context.
type Generator struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	maxTokens int
}

// NewGenerator creates a Generator. maxTokens <= 0 uses
// DefaultMaxAnswerTokens.
func NewGenerator(llm driven.LLMService, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxAnswerTokens
	}
	return &Generator{llm: llm, maxTokens: maxTokens}
}

// SetPromptStore implements driven.PromptStoreAware.
func (g *Generator) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// Model names the language model in use.
func (g *Generator) Model() string {
	if g.llm == nil {
		return ""
	}
	return g.llm.ModelName()
}

// Generate answers question from contextText at temperature 0.
//
// An empty context never reaches the model: the result is NoContextAnswer,
// ungrounded. A model reply starting with driven.NotInContextMarker gives
// the same result.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (domain.Generation, error) {
	if strings.TrimSpace(contextText) == "" {
		logger.Debug("empty context, answering without the model")
		return domain.Generation{Text: NoContextAnswer}, nil
	}
	if g.llm == nil {
		return domain.Generation{}, fmt.Errorf("%w: no language model configured", domain.ErrGenerationService)
	}

	prompt := strings.NewReplacer(
		"{{context}}", contextText,
		"{{question}}", strings.TrimSpace(question),
	).Replace(g.template())

	logger.Debug("generating with %s (%d prompt bytes)", g.llm.ModelName(), len(prompt))
	out, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		System:      g.system(),
		MaxTokens:   g.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return domain.Generation{}, generationError(ctx, err)
	}

	out = strings.TrimSpace(out)
	switch {
	case out == "":
		return domain.Generation{}, fmt.Errorf("%w: empty completion", domain.ErrGenerationService)
	case strings.HasPrefix(strings.ToUpper(out), driven.NotInContextMarker):
		return domain.Generation{Text: NoContextAnswer}, nil
	}
	return domain.Generation{Text: out, Grounded: true}, nil
}

// system returns the grounding instructions. A custom system prompt that
// drops the not-in-context marker would make every answer look grounded,
// so such a prompt is replaced by the default.
func (g *Generator) system() string {
	if g.prompts == nil {
		return driven.DefaultSystemPrompt
	}
	sys, err := g.prompts.Load(driven.PromptSystem)
	if err != nil || !strings.Contains(sys, driven.NotInContextMarker) {
		logger.Warn("system prompt unusable, using built-in instructions")
		return driven.DefaultSystemPrompt
	}
	return sys
}

func (g *Generator) template() string {
	if g.prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	tmpl, err := g.prompts.Load(driven.PromptAnswer)
	if err != nil || !strings.Contains(tmpl, "{{context}}") || !strings.Contains(tmpl, "{{question}}") {
		logger.Warn("answer prompt unusable, using built-in template")
		return driven.DefaultAnswerPrompt
	}
	return tmpl
}

// generationError classifies a failure from the language-model service.
func generationError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ContextError(ctx, err)
	}
	if errors.Is(err, domain.ErrGenerationService) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
}
