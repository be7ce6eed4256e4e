package services

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// delimiterLine separates units in an assembled context. Occurrences inside
// unit content are rewritten so the delimiter stays unambiguous.
const delimiterLine = "-----8<----- mailqa:unit -----8<-----"

// UnitSeparator is placed between consecutive units of a context.
const UnitSeparator = "\n\n" + delimiterLine + "\n\n"

const quotedDelimiterLine = "-----8<----- quoted -----8<-----"

// bytesPerToken approximates tokenizer output for English text.
const bytesPerToken = 4

// EstimateTokens approximates the token count of s.
func EstimateTokens(s string) int {
	return (len(s) + bytesPerToken - 1) / bytesPerToken
}

// Assembler joins retrieved units into one context block.
type Assembler struct {
	maxTokens int
}

// NewAssembler creates an Assembler bounding contexts to maxTokens
// estimated tokens. maxTokens <= 0 disables the bound.
func NewAssembler(maxTokens int) *Assembler {
	return &Assembler{maxTokens: maxTokens}
}

// Assemble joins the content of every result in rank order.
// Empty results give an empty string, meaning no grounding is available.
func (a *Assembler) Assemble(results []domain.ScoredUnit) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = quote(r.Unit.Content)
	}
	return strings.Join(parts, UnitSeparator)
}

// AssembleBounded is Assemble limited to the token budget. Units are added
// in rank order until the next one would exceed the budget. The first unit
// is always included, truncated if it alone is over budget. The returned
// results are exactly the units present in the context.
func (a *Assembler) AssembleBounded(results []domain.ScoredUnit) (string, []domain.ScoredUnit) {
	if a.maxTokens <= 0 || len(results) == 0 {
		return a.Assemble(results), results
	}

	var b strings.Builder
	used := 0
	for i, r := range results {
		content := quote(r.Unit.Content)
		if i == 0 {
			content = truncate(content, a.maxTokens*bytesPerToken)
			b.WriteString(content)
			used = 1
			continue
		}
		if EstimateTokens(b.String()+UnitSeparator+content) > a.maxTokens {
			break
		}
		b.WriteString(UnitSeparator)
		b.WriteString(content)
		used++
	}
	return b.String(), results[:used]
}

func quote(content string) string {
	return strings.ReplaceAll(content, delimiterLine, quotedDelimiterLine)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
