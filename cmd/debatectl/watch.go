package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

// watchCmd streams a debate's events to the terminal
var watchCmd = &cobra.Command{
	Use:   "watch <debate-id>",
	Short: "Watch a debate's live token stream",
	Long: `Drive a debate and print agent responses token by token as they are
generated. The command returns when the debate ends; interrupting it
disconnects the stream, which stops the debate.

Examples:
  debatectl watch 4f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/api/v1/debates/%s/stream", serverURL, args[0])

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open for the whole debate.
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	currentAgent := -1
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev debate.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			fmt.Fprintf(os.Stderr, "[debatectl] bad event: %v\n", err)
			continue
		}

		switch ev.Type {
		case debate.EventToken:
			if ev.AgentIndex != nil && *ev.AgentIndex != currentAgent {
				currentAgent = *ev.AgentIndex
				fmt.Printf("\n\n[agent %d]\n", currentAgent)
			}
			fmt.Print(ev.Content)
		case debate.EventTurnEnd:
			// Turn boundary is visible through the next agent header.
		case debate.EventPaused:
			fmt.Fprintf(os.Stderr, "\n[debatectl] paused\n")
		case debate.EventResumed:
			fmt.Fprintf(os.Stderr, "[debatectl] resumed\n")
		case debate.EventWaitingForNext:
			next := -1
			if ev.NextAgentIndex != nil {
				next = *ev.NextAgentIndex
			}
			fmt.Fprintf(os.Stderr, "\n[debatectl] waiting for next turn (agent %d) — run: debatectl next %s\n", next, args[0])
		case debate.EventDebateEnd:
			fmt.Printf("\n\nDebate ended: %s\n", ev.Reason)
			return nil
		case debate.EventError:
			return fmt.Errorf("debate error: %s", ev.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream closed: %w", err)
	}
	return nil
}
