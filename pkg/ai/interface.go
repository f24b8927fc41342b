package ai

import (
	"context"
	"time"
)

// ThreadMessage is one message of a conversation thread, already ordered and
// windowed by the caller
type ThreadMessage struct {
	Sender    string    `json:"sender"`
	Direction string    `json:"direction"` // "inbound" or "outbound"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ThreadAnalysis is the structured result of analyzing a conversation thread
type ThreadAnalysis struct {
	Summary          string   `json:"summary"`
	Topics           []string `json:"topics"`
	Urgency          string   `json:"urgency"` // low, medium, high
	Status           string   `json:"status"`  // active, waiting_on_me, waiting_on_them, resolved
	ActionItems      []string `json:"action_items"`
	UnrespondedCount int      `json:"unresponded_count"`
}

// Summarizer is the interface for AI thread analysis.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type Summarizer interface {
	AnalyzeThread(ctx context.Context, messages []ThreadMessage, ownerIdentity, contactName string) (*ThreadAnalysis, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
