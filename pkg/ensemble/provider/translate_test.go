package provider

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
)

func TestToChatMessages(t *testing.T) {
	history := History{
		{Role: RoleUser, Content: "What is TCP?"},
		{Role: RoleAssistant, Content: "A transport protocol."},
	}

	messages := ToChatMessages("And UDP?", history)

	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}

	if messages[0].Role != openai.ChatMessageRoleUser || messages[0].Content != "What is TCP?" {
		t.Errorf("Unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != openai.ChatMessageRoleAssistant || messages[1].Content != "A transport protocol." {
		t.Errorf("Unexpected second message: %+v", messages[1])
	}
	if messages[2].Role != openai.ChatMessageRoleUser || messages[2].Content != "And UDP?" {
		t.Errorf("Prompt should be appended as the final user message, got %+v", messages[2])
	}
}

func TestToChatMessagesEmptyHistory(t *testing.T) {
	messages := ToChatMessages("hello", nil)

	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].Role != openai.ChatMessageRoleUser || messages[0].Content != "hello" {
		t.Errorf("Unexpected message: %+v", messages[0])
	}
}

func TestToGeminiContents(t *testing.T) {
	history := History{
		{Role: RoleUser, Content: "Write a haiku"},
		{Role: RoleAssistant, Content: "Autumn moonlight"},
	}

	contents := ToGeminiContents(history)

	if len(contents) != 2 {
		t.Fatalf("Expected 2 contents, got %d", len(contents))
	}

	if contents[0].Role != "user" {
		t.Errorf("Expected role 'user', got %q", contents[0].Role)
	}
	// Gemini's assistant role is "model", not "assistant"
	if contents[1].Role != "model" {
		t.Errorf("Expected role 'model', got %q", contents[1].Role)
	}

	for i, want := range []string{"Write a haiku", "Autumn moonlight"} {
		if len(contents[i].Parts) != 1 {
			t.Fatalf("Expected 1 part in content %d, got %d", i, len(contents[i].Parts))
		}
		text, ok := contents[i].Parts[0].(genai.Text)
		if !ok {
			t.Fatalf("Expected genai.Text part, got %T", contents[i].Parts[0])
		}
		if string(text) != want {
			t.Errorf("Expected part %q, got %q", want, string(text))
		}
	}
}

func TestToGeminiContentsEmptyHistory(t *testing.T) {
	if contents := ToGeminiContents(nil); len(contents) != 0 {
		t.Errorf("Expected no contents for empty history, got %d", len(contents))
	}
}
