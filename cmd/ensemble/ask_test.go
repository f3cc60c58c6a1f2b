package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

func resetAskFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		askConstraint = ""
		askRemote = ""
		askHistoryFile = ""
		askJSON = false
	})
}

func writeHistoryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadHistory(t *testing.T) {
	history, err := loadHistory("")
	if err != nil || history != nil {
		t.Errorf("Empty path should load no history, got %v, %v", history, err)
	}

	path := writeHistoryFile(t, `[
		{"role": "user", "content": "hi"},
		{"role": "assistant", "content": "hello"}
	]`)
	history, err = loadHistory(path)
	if err != nil {
		t.Fatalf("loadHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(history))
	}
	if history[0].Role != provider.RoleUser || history[1].Content != "hello" {
		t.Errorf("Unexpected turns: %+v", history)
	}

	if _, err := loadHistory(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
	if _, err := loadHistory(writeHistoryFile(t, `{not json`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

// runAskCommand executes the ask command against a remote server and
// returns the captured output
func runAskCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetAskFlags(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"ask"}, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestAskRemoteJSON(t *testing.T) {
	var seen struct {
		Prompt  string           `json:"prompt"`
		History provider.History `json:"history"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ensemble/complete" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(pipeline.Outcome{
			FinalResponse: "final answer",
			PipelineName:  "Factual Analysis Pipeline",
			RequestID:     "r1",
		})
	}))
	defer srv.Close()

	historyFile := writeHistoryFile(t, `[{"role": "user", "content": "earlier"}]`)
	out, err := runAskCommand(t,
		"--remote", srv.URL, "--json", "--history", historyFile, "question")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	if seen.Prompt != "question" {
		t.Errorf("Expected prompt to reach the server, got %q", seen.Prompt)
	}
	if len(seen.History) != 1 || seen.History[0].Content != "earlier" {
		t.Errorf("Expected history to reach the server, got %+v", seen.History)
	}

	var outcome pipeline.Outcome
	if err := json.Unmarshal([]byte(out), &outcome); err != nil {
		t.Fatalf("Output is not one JSON record: %v\n%s", err, out)
	}
	if outcome.FinalResponse != "final answer" {
		t.Errorf("Expected final answer, got %q", outcome.FinalResponse)
	}
}

func TestAskRemoteJSONDualFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pipeline.Outcome{
			FinalResponse: pipeline.FatalMessage,
			Failed:        true,
		})
	}))
	defer srv.Close()

	out, err := runAskCommand(t, "--remote", srv.URL, "--json", "question")
	if !errors.Is(err, aierrors.ErrAllProvidersFailed) {
		t.Errorf("Expected ErrAllProvidersFailed, got %v", err)
	}
	if !strings.Contains(out, pipeline.FatalMessage) {
		t.Errorf("The record should still be printed, got %q", out)
	}
}
