package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/debated/internal/httpapi"
)

// control sends one control signal to an active debate.
func control(debateID, action string) error {
	var resp httpapi.ControlResponse
	path := fmt.Sprintf("/api/v1/debates/%s/%s", debateID, action)
	if err := doJSON(http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", action)
	return nil
}

var pauseCmd = &cobra.Command{
	Use:   "pause <debate-id>",
	Short: "Pause an active debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return control(args[0], "pause")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <debate-id>",
	Short: "Resume a paused debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return control(args[0], "resume")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <debate-id>",
	Short: "Stop an active debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return control(args[0], "stop")
	},
}

var nextCmd = &cobra.Command{
	Use:   "next <debate-id>",
	Short: "Trigger the next turn of a step-by-step debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return control(args[0], "next-turn")
	},
}
