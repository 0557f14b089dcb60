package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/preview"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <flow>",
	Short: "Walk through a flow as a chat conversation",
	Long: `Starts at the start node and prints each message with its numbered options.
Answer with the option number or its label. "restart" goes back to the start,
"quit" leaves. With --transcript the conversation is saved as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transcript, _ := cmd.Flags().GetString("transcript")

		if args[0] == "-" {
			return errors.New("preview reads answers from stdin; pass the flow as a file")
		}
		flow, err := loadFlow(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}

		session, err := preview.Start(flow, preview.WithLogger(logger))
		if err != nil {
			return err
		}

		runPreview(session, cmd.InOrStdin(), cmd.OutOrStdout())

		if transcript == "" {
			return nil
		}
		return writeTranscript(transcript, session.Transcript())
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("transcript", "t", "", "Save the conversation transcript to this JSON file")
}

// runPreview drives session from line-based input until the conversation
// ends, the user quits or input runs out.
func runPreview(session *preview.Session, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "--- branchflow preview ---")
	for {
		node := session.Current()
		fmt.Fprintf(out, "\n🤖 %s\n", node.Text)

		if session.Done() {
			fmt.Fprintln(out, "\n(conversation ended)")
			return
		}
		for i, opt := range node.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Label)
		}

		fmt.Fprint(out, "> ")
		text, err := reader.ReadString('\n')
		input := strings.TrimSpace(text)
		if input == "" && err != nil {
			fmt.Fprintln(out)
			return
		}

		switch input {
		case "quit", "exit":
			fmt.Fprintln(out, "Bye!")
			return
		case "restart":
			session.Restart()
			continue
		}

		if _, chooseErr := choose(session, input); chooseErr != nil {
			switch {
			case errors.Is(chooseErr, domain.ErrInvalidChoice):
				fmt.Fprintf(out, "Unknown option %q\n", input)
			case errors.Is(chooseErr, domain.ErrNodeNotFound):
				fmt.Fprintf(out, "⚠️  %v\n", chooseErr)
			default:
				fmt.Fprintf(out, "Error: %v\n", chooseErr)
			}
		}
		if err != nil {
			return
		}
	}
}

// choose accepts a 1-based option number or an option label.
func choose(session *preview.Session, input string) (domain.FlowNode, error) {
	if n, err := strconv.Atoi(input); err == nil {
		return session.Choose(n - 1)
	}
	return session.ChooseLabel(input)
}

func writeTranscript(path string, transcript domain.Transcript) error {
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	logger.Info("Transcript saved", "path", path, "messages", len(transcript.Conversation))
	return nil
}
