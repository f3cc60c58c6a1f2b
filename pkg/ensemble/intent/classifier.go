package intent

import (
	"context"
	"strings"

	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
	"github.com/mmichie/ensemble/pkg/ensemble/prompt"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

// classifierTemperature keeps label output decisive
const classifierTemperature = 0.1

// Classification is the classifier's verdict plus the reasoning it gave.
type Classification struct {
	Intent    Intent
	Reasoning string
}

// Classifier labels requests by asking a fixed provider to reason and
// emit a final label line.
type Classifier struct {
	provider provider.Provider
}

// NewClassifier creates a classifier backed by the given provider
func NewClassifier(p provider.Provider) *Classifier {
	return &Classifier{provider: p}
}

// Classify labels the request FACTUAL or CREATIVE. A failed provider call
// is escalated: without a label no pipeline can be chosen.
func (c *Classifier) Classify(ctx context.Context, userPrompt string, history provider.History) (Classification, error) {
	resp, err := c.provider.GenerateResponse(ctx, provider.Request{
		Prompt:      prompt.Classification(userPrompt, history),
		Temperature: classifierTemperature,
	})
	if err != nil {
		return Classification{}, aierrors.Wrap(
			aierrors.Wrap(err, c.provider.Name(), "classify"),
			"classifier", "classify")
	}

	return parseClassification(resp.Content), nil
}

// parseClassification inspects the last non-empty line for the label.
// Anything that does not contain CREATIVE degrades to Factual; malformed
// classifier output is never an error.
func parseClassification(raw string) Classification {
	lines := strings.Split(raw, "\n")

	label := ""
	labelIndex := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			label = trimmed
			labelIndex = i
			break
		}
	}

	result := Classification{Intent: Factual}
	if strings.Contains(strings.ToUpper(label), "CREATIVE") {
		result.Intent = Creative
	}

	// Everything before the label line is the reasoning
	var reasoning []string
	for i, line := range lines {
		if i == labelIndex {
			break
		}
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Reasoning:"))
		if line != "" {
			reasoning = append(reasoning, line)
		}
	}
	result.Reasoning = strings.Join(reasoning, " ")

	return result
}
