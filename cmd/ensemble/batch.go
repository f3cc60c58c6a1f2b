package main

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
)

var (
	batchOutput     string
	batchConstraint string
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Run each prompt in a file through the ensemble and write JSONL records",
	Long: `batch reads one prompt per line (blank lines and #-comments are
skipped), runs each through the full pipeline, and writes one JSON
record per prompt. Base-provider responses are cached for the run, so
repeated prompts hit each provider once.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output file (default stdout)")
	batchCmd.Flags().StringVarP(&batchConstraint, "constraint", "c", "", "constraint applied to every prompt")

	rootCmd.AddCommand(batchCmd)
}

// batchRecord is one output line; Outcome's fields are promoted
type batchRecord struct {
	Prompt string `json:"prompt"`
	pipeline.Outcome
	Error string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	out := os.Stdout
	if batchOutput != "" {
		out, err = os.Create(batchOutput)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	orch, err := buildOrchestrator(pipeline.WithCache(pipeline.NewResponseCache()))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		userPrompt := strings.TrimSpace(scanner.Text())
		if userPrompt == "" || strings.HasPrefix(userPrompt, "#") {
			continue
		}

		record := batchRecord{Prompt: userPrompt}
		outcome, err := orch.RunCollect(cmd.Context(), pipeline.Request{
			Prompt:     userPrompt,
			Constraint: batchConstraint,
		})
		if err != nil {
			// A request-fatal error fails this prompt, not the batch
			record.Error = err.Error()
			slog.Error("prompt failed", "line", line, "error", err)
		} else {
			record.Outcome = outcome
			if err := outcome.Err(); err != nil {
				slog.Error("prompt failed", "line", line, "error", err)
			} else {
				slog.Info("prompt completed",
					"line", line,
					"pipeline", outcome.PipelineName)
			}
		}

		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return scanner.Err()
}
