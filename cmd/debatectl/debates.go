package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/debated/internal/debate"
	"github.com/fyrsmithlabs/debated/internal/httpapi"
)

var (
	createTimeLimit     int
	createDelay         float64
	createStep          bool
	createMaxTurns      int
	createAutoPause     int
	createTemperature   float64
	createPersonalities []string
	createLengths       []string
)

// createCmd creates a new debate
var createCmd = &cobra.Command{
	Use:   "create <standpoint-1> <standpoint-2>",
	Short: "Create a new debate between two standpoints",
	Long: `Create a new debate. Agent 0 argues the first standpoint and opens the
debate; agent 1 argues the second.

Examples:
  # Create with defaults (5 minute limit, pragmatic agents)
  debatectl create "Free will exists" "Free will is an illusion"

  # Step-by-step debate with custom personalities
  debatectl create --step --personality skeptic --personality optimist \
    "Progress is inevitable" "Progress is a myth"`,
	Args: cobra.ExactArgs(2),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().IntVar(&createTimeLimit, "time-limit", 0, "time limit in minutes (default 5)")
	createCmd.Flags().Float64Var(&createDelay, "delay", 0, "response delay in seconds (default 5, 0 = full speed)")
	createCmd.Flags().BoolVar(&createStep, "step", false, "require an explicit trigger before every turn")
	createCmd.Flags().IntVar(&createMaxTurns, "max-turns", 0, "turn ceiling (0 = unlimited)")
	createCmd.Flags().IntVar(&createAutoPause, "auto-pause-every", 0, "pause every N turns (0 = never)")
	createCmd.Flags().Float64Var(&createTemperature, "temperature", 0, "provider temperature (default 0.7)")
	createCmd.Flags().StringSliceVar(&createPersonalities, "personality", nil, "agent personality, repeat for the second agent")
	createCmd.Flags().StringSliceVar(&createLengths, "length", nil, "agent response length (short|medium|long), repeat for the second agent")
}

func runCreate(cmd *cobra.Command, args []string) error {
	params := debate.CreateParams{
		Standpoints:          []string{args[0], args[1]},
		TimeLimitMinutes:     createTimeLimit,
		StepByStepMode:       createStep,
		MaxTurns:             createMaxTurns,
		AutoPauseEveryNTurns: createAutoPause,
	}
	// Only send what was set so the server applies its own defaults and an
	// explicit --delay 0 or --temperature 0 survives.
	if cmd.Flags().Changed("delay") {
		params.ResponseDelaySeconds = &createDelay
	}
	if cmd.Flags().Changed("temperature") {
		params.Temperature = &createTemperature
	}
	for i, p := range createPersonalities {
		if i > 1 {
			break
		}
		params.AgentConfigs[i].Personality = debate.Personality(p)
	}
	for i, l := range createLengths {
		if i > 1 {
			break
		}
		params.AgentConfigs[i].ResponseLength = debate.ResponseLength(l)
	}

	var d debate.Debate
	if err := doJSON(http.MethodPost, "/api/v1/debates", params, &d); err != nil {
		return err
	}

	fmt.Printf("Created debate %s\n", d.ID)
	fmt.Printf("  Agent 0: %s\n", d.Standpoints[0])
	fmt.Printf("  Agent 1: %s\n", d.Standpoints[1])
	fmt.Printf("  Time limit: %d minutes\n", d.TimeLimitMinutes)
	if d.StepByStepMode {
		fmt.Printf("  Mode: step-by-step\n")
	}
	fmt.Printf("\nWatch it with: debatectl watch %s\n", d.ID)
	return nil
}

// listCmd lists all debates
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all debates",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	var debates []debate.Debate
	if err := doJSON(http.MethodGet, "/api/v1/debates", nil, &debates); err != nil {
		return err
	}

	if len(debates) == 0 {
		fmt.Println("No debates.")
		return nil
	}

	for _, d := range debates {
		fmt.Printf("%s  %-16s  turns=%-3d  %s vs %s\n",
			d.ID, d.Status, d.TurnCount,
			truncate(d.Standpoints[0], 30), truncate(d.Standpoints[1], 30))
	}
	return nil
}

// showCmd shows one debate with its messages
var showCmd = &cobra.Command{
	Use:   "show <debate-id>",
	Short: "Show a debate and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	var detail httpapi.DebateDetail
	if err := doJSON(http.MethodGet, "/api/v1/debates/"+args[0], nil, &detail); err != nil {
		return err
	}

	d := detail.Debate
	fmt.Printf("Debate %s\n", d.ID)
	fmt.Printf("  Status: %s", d.Status)
	if d.EndReason != "" {
		fmt.Printf(" (%s)", d.EndReason)
	}
	fmt.Println()
	fmt.Printf("  Agent 0: %s\n", d.Standpoints[0])
	fmt.Printf("  Agent 1: %s\n", d.Standpoints[1])
	fmt.Printf("  Turns: %d\n", d.TurnCount)

	for _, m := range detail.Messages {
		edited := ""
		if m.Edited {
			edited = " (edited)"
		}
		fmt.Printf("\n[agent %d] %s%s\n%s\n", m.AgentIndex, m.ID, edited, m.Content)
	}
	return nil
}

// deleteCmd deletes a debate
var deleteCmd = &cobra.Command{
	Use:   "delete <debate-id>",
	Short: "Delete a debate and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := doJSON(http.MethodDelete, "/api/v1/debates/"+args[0], nil, nil); err != nil {
		return err
	}
	fmt.Printf("Deleted debate %s\n", args[0])
	return nil
}

// truncate shortens s to max runes for list output.
func truncate(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}
