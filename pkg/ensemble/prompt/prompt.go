// Package prompt builds the classification, synthesis and refinement
// prompts fed to the providers. All builders are pure: the same inputs
// always produce the same prompt text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

// noHistoryPlaceholder stands in for an absent transcript so the
// instruction blocks never dangle over empty context.
const noHistoryPlaceholder = "(no prior conversation)"

// RenderTranscript renders history as an ordered, role-labeled transcript.
func RenderTranscript(history provider.History) string {
	if len(history) == 0 {
		return noHistoryPlaceholder
	}

	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(turn.Content)
	}
	return b.String()
}

// Classification builds the intent-classification prompt. The model is
// instructed to reason freely and end with a single label line; the
// classifier parses only the last non-empty line.
func Classification(userPrompt string, history provider.History) string {
	var b strings.Builder
	b.WriteString("You are a request classifier. Decide whether the user request below ")
	b.WriteString("is FACTUAL (seeking accurate information, analysis, or explanation) ")
	b.WriteString("or CREATIVE (seeking original writing, ideation, or artistic output).\n\n")
	b.WriteString("Conversation so far:\n")
	b.WriteString(RenderTranscript(history))
	b.WriteString("\n\nUser request:\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\nExplain your reasoning briefly, then output a final line ")
	b.WriteString("containing exactly one word: FACTUAL or CREATIVE.")
	return b.String()
}

// Synthesis builds the prompt that merges two drafts into one response.
func Synthesis(userPrompt, draftA, draftB, constraint string, history provider.History) string {
	var b strings.Builder
	b.WriteString("Two independent AI models drafted responses to the same request. ")
	b.WriteString("Merge them into a single response that keeps the strengths of both, ")
	b.WriteString("resolves any disagreement, and reads as one coherent answer.\n\n")
	writeContext(&b, userPrompt, constraint, history)
	b.WriteString(fmt.Sprintf("Draft A:\n%s\n\nDraft B:\n%s\n\n", draftA, draftB))
	b.WriteString("Synthesized response:")
	return b.String()
}

// Refinement builds the prompt that improves a single surviving draft.
// Used when exactly one base provider failed.
func Refinement(userPrompt, draft, constraint string, history provider.History) string {
	var b strings.Builder
	b.WriteString("An AI model drafted a response to the request below. ")
	b.WriteString("Improve the draft in place: tighten the structure, fix any errors, ")
	b.WriteString("and make it fully answer the request.\n\n")
	writeContext(&b, userPrompt, constraint, history)
	b.WriteString(fmt.Sprintf("Draft:\n%s\n\n", draft))
	b.WriteString("Refined response:")
	return b.String()
}

// writeContext renders the shared request/constraint/history block.
// An empty constraint contributes no text.
func writeContext(b *strings.Builder, userPrompt, constraint string, history provider.History) {
	b.WriteString("Conversation so far:\n")
	b.WriteString(RenderTranscript(history))
	b.WriteString("\n\nUser request:\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\n")
	if constraint != "" {
		b.WriteString("CRITICAL INSTRUCTION: the final response MUST satisfy this ")
		b.WriteString("constraint, treat it as mandatory: ")
		b.WriteString(constraint)
		b.WriteString("\n\n")
	}
}
