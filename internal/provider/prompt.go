package provider

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

// ChatMessage is one entry of an OpenAI-style chat payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildSystemPrompt renders the debate system prompt for the speaking
// agent: its standpoint, the opponent's standpoint, personality guidance,
// and the word-count requirement for its response-length tier.
func BuildSystemPrompt(pctx Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a philosopher engaged in a debate. Your position is: %q\n", pctx.Standpoint)
	fmt.Fprintf(&b, "Your opponent's position is: %q\n", pctx.OpponentStandpoint)

	if info, ok := debate.LookupPersonality(pctx.AgentConfig.Personality); ok {
		fmt.Fprintf(&b, "\nYour personality style: %s - %s\n", info.Label, info.Description)
		b.WriteString("Argue according to this personality. Let it shape your reasoning, examples, and approach to arguments.\n")
	}

	if info, ok := debate.LookupResponseLength(pctx.AgentConfig.ResponseLength); ok {
		b.WriteString("\nResponse length requirement:\n")
		fmt.Fprintf(&b, "Your response MUST be between %d and %d words. This is a strict requirement; count your words and adjust accordingly.\n",
			info.MinWords, info.MaxWords)
	}

	b.WriteString(`
Rules:
1. Argue your position thoughtfully and respectfully
2. Respond to your opponent's arguments directly
3. Use logical reasoning and examples
4. Be open to finding common ground while defending your core position
5. Do not repeat arguments you've already made`)

	return b.String()
}

// BuildChatMessages assembles the chat payload: system prompt, the debate
// history with roles flipped to the speaking agent's perspective (its own
// past turns are "assistant", the opponent's are "user"), and finally the
// turn prompt as a user message.
func BuildChatMessages(prompt string, pctx Context) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(pctx.History)+2)
	msgs = append(msgs, ChatMessage{Role: "system", Content: BuildSystemPrompt(pctx)})

	for _, m := range pctx.History {
		role := "user"
		if m.AgentIndex == pctx.AgentIndex {
			role = "assistant"
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Content})
	}

	if prompt != "" {
		msgs = append(msgs, ChatMessage{Role: "user", Content: prompt})
	}
	return msgs
}

// OpeningPrompt is the turn prompt for the very first turn of a debate.
func OpeningPrompt(ownStandpoint, opponentStandpoint string) string {
	return fmt.Sprintf("Your opponent holds the position: %q. Begin the debate by presenting your main argument for your position: %q",
		opponentStandpoint, ownStandpoint)
}

// FollowUpPrompt is the turn prompt for every turn after the first.
func FollowUpPrompt() string {
	return "Respond to your opponent's argument."
}
