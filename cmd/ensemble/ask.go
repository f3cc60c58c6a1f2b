package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmichie/ensemble/internal/client"
	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

var (
	askConstraint  string
	askRemote      string
	askHistoryFile string
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Run one prompt through the ensemble and stream the response",
	Long: `ask runs a single prompt through the full pipeline and streams the
result. Prior conversation turns can be supplied with --history; --json
replaces the rendered stream with one aggregate JSON record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConstraint, "constraint", "c", "", "constraint the final response must satisfy")
	askCmd.Flags().StringVar(&askHistoryFile, "history", "", "JSON file with prior conversation turns")
	askCmd.Flags().StringVar(&askRemote, "remote", "", "run against a remote ensemble server at this URL")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the aggregate record instead of streaming")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	userPrompt := strings.Join(args, " ")

	history, err := loadHistory(askHistoryFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if askJSON {
		outcome, err := askOutcome(ctx, userPrompt, history)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return err
		}
		return outcome.Err()
	}

	render := newRenderer(cmd.OutOrStdout())

	if askRemote != "" {
		err := client.New(askRemote).Stream(ctx, client.Request{
			Prompt:     userPrompt,
			Constraint: askConstraint,
			History:    history,
		}, render.handle)
		if err != nil {
			return err
		}
		return render.finish()
	}

	orch, err := buildOrchestrator()
	if err != nil {
		return err
	}

	events, err := orch.Run(ctx, pipeline.Request{
		Prompt:     userPrompt,
		Constraint: askConstraint,
		History:    history,
	})
	if err != nil {
		return err
	}

	for ev := range events {
		if err := render.handle(ev); err != nil {
			return err
		}
	}
	return render.finish()
}

// askOutcome runs the aggregate path, locally or against a remote server
func askOutcome(ctx context.Context, userPrompt string, history provider.History) (pipeline.Outcome, error) {
	if askRemote != "" {
		return client.New(askRemote).Complete(ctx, client.Request{
			Prompt:     userPrompt,
			Constraint: askConstraint,
			History:    history,
		})
	}

	orch, err := buildOrchestrator()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	return orch.RunCollect(ctx, pipeline.Request{
		Prompt:     userPrompt,
		Constraint: askConstraint,
		History:    history,
	})
}

// loadHistory reads prior conversation turns from a JSON file holding an
// array of {role, content} objects, oldest first.
func loadHistory(path string) (provider.History, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var history provider.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history file %s: %w", path, err)
	}
	return history, nil
}
