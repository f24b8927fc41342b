package ai

import (
	"context"

	"crmhub-backend/pkg/gemini"
)

// geminiSummarizer implements Summarizer on top of the Gemini HTTP client
type geminiSummarizer struct {
	svc *gemini.Service
}

// NewGeminiSummarizer wraps a Gemini client as a Summarizer
func NewGeminiSummarizer(apiKey string) Summarizer {
	return &geminiSummarizer{svc: gemini.NewService(apiKey)}
}

func (g *geminiSummarizer) AnalyzeThread(ctx context.Context, messages []ThreadMessage, ownerIdentity, contactName string) (*ThreadAnalysis, error) {
	prompt := buildThreadPrompt(messages, ownerIdentity, contactName)
	text, err := g.svc.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseThreadAnalysis(text)
}
