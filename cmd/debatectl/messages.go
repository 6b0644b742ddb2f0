package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/debated/internal/debate"
	"github.com/fyrsmithlabs/debated/internal/httpapi"
)

var editContent string

// editCmd replaces a message's content
var editCmd = &cobra.Command{
	Use:   "edit <debate-id> <message-id>",
	Short: "Edit a message's content",
	Long: `Replace the content of a persisted message. The message keeps its
position in the transcript and is marked as edited.

Examples:
  debatectl edit 4f1c... 9a2b... --content "A sharper version of the argument."`,
	Args: cobra.ExactArgs(2),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editContent, "content", "", "replacement content (required)")
	_ = editCmd.MarkFlagRequired("content")
}

func runEdit(cmd *cobra.Command, args []string) error {
	path := fmt.Sprintf("/api/v1/debates/%s/messages/%s", args[0], args[1])
	var msg debate.Message
	if err := doJSON(http.MethodPut, path, httpapi.EditMessageRequest{Content: editContent}, &msg); err != nil {
		return err
	}
	fmt.Printf("Edited message %s (agent %d)\n", msg.ID, msg.AgentIndex)
	return nil
}

// rewindCmd deletes every message after a reference message
var rewindCmd = &cobra.Command{
	Use:   "rewind <debate-id> <message-id>",
	Short: "Delete every message newer than the given message",
	Long: `Rewind a debate to the given message: every strictly newer message is
deleted and the turn counter is re-synced. A completed debate reopens as
paused so it can be driven again from the rewound point.`,
	Args: cobra.ExactArgs(2),
	RunE: runRewind,
}

func runRewind(cmd *cobra.Command, args []string) error {
	path := fmt.Sprintf("/api/v1/debates/%s/messages/after/%s", args[0], args[1])
	var resp httpapi.RewindResponse
	if err := doJSON(http.MethodDelete, path, nil, &resp); err != nil {
		return err
	}
	fmt.Printf("Rewound debate %s: deleted %d message(s)\n", args[0], resp.DeletedCount)
	return nil
}
