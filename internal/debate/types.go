package debate

import (
	"time"
)

// Status is the lifecycle state of a debate.
type Status string

const (
	StatusPending        Status = "pending"
	StatusRunning        Status = "running"
	StatusPaused         Status = "paused"
	StatusWaitingForNext Status = "waiting-for-next"
	StatusCompleted      Status = "completed"
)

// EndReason records why a completed debate ended. It is empty while the
// debate has not completed.
type EndReason string

const (
	EndReasonTimeout  EndReason = "timeout"
	EndReasonManual   EndReason = "manual"
	EndReasonMaxTurns EndReason = "max-turns"
)

// Personality selects the argumentation style of an agent.
type Personality string

const (
	PersonalityMaterialist Personality = "materialist"
	PersonalityIdealist    Personality = "idealist"
	PersonalityPragmatic   Personality = "pragmatic"
	PersonalityTheoretical Personality = "theoretical"
	PersonalityEmpiricist  Personality = "empiricist"
	PersonalitySkeptic     Personality = "skeptic"
	PersonalityOptimist    Personality = "optimist"
	PersonalityPessimist   Personality = "pessimist"
	PersonalityAnalytical  Personality = "analytical"
	PersonalityIntuitive   Personality = "intuitive"
	PersonalityChaotic     Personality = "chaotic"
	PersonalityPsychopath  Personality = "psychopath"
)

// PersonalityInfo describes a personality for prompt construction.
type PersonalityInfo struct {
	Value       Personality
	Label       string
	Description string
}

// Personalities lists every supported personality with the guidance text
// injected into the agent's system prompt.
var Personalities = []PersonalityInfo{
	{PersonalityMaterialist, "Materialist", "Focuses on physical reality, rejects supernatural explanations, emphasizes material conditions"},
	{PersonalityIdealist, "Idealist", "Prioritizes ideas, consciousness, and mental constructs over physical reality"},
	{PersonalityPragmatic, "Pragmatic", "Values practical consequences and real-world applications over abstract theory"},
	{PersonalityTheoretical, "Theoretical", "Prefers abstract reasoning, complex concepts, and systematic frameworks"},
	{PersonalityEmpiricist, "Empiricist", "Relies on observable evidence, experiments, and sensory experience"},
	{PersonalitySkeptic, "Skeptic", "Questions assumptions, demands rigorous proof, challenges conventional wisdom"},
	{PersonalityOptimist, "Optimist", "Sees positive potential, emphasizes hope and progress, focuses on solutions"},
	{PersonalityPessimist, "Pessimist", "Highlights risks and problems, considers worst-case scenarios, cautious outlook"},
	{PersonalityAnalytical, "Analytical", "Breaks down arguments systematically, uses formal logic and structured reasoning"},
	{PersonalityIntuitive, "Intuitive", "Relies on gut feelings, pattern recognition, and holistic understanding"},
	{PersonalityChaotic, "Chaotic", "Unpredictable reasoning, jumps between topics, non-linear arguments, embraces contradiction"},
	{PersonalityPsychopath, "Psychopath", "Emotionless logic, no moral or empathy-based appeals, cold rational analysis only"},
}

// LookupPersonality returns the info for a personality value.
func LookupPersonality(p Personality) (PersonalityInfo, bool) {
	for _, info := range Personalities {
		if info.Value == p {
			return info, true
		}
	}
	return PersonalityInfo{}, false
}

// ResponseLength selects the target verbosity tier of an agent.
type ResponseLength string

const (
	ResponseShort  ResponseLength = "short"
	ResponseMedium ResponseLength = "medium"
	ResponseLong   ResponseLength = "long"
)

// ResponseLengthInfo maps a length tier to its target word-count range.
type ResponseLengthInfo struct {
	Value    ResponseLength
	Label    string
	MinWords int
	MaxWords int
}

// ResponseLengths lists the supported response-length tiers.
var ResponseLengths = []ResponseLengthInfo{
	{ResponseShort, "Short", 20, 50},
	{ResponseMedium, "Medium", 50, 100},
	{ResponseLong, "Long", 100, 200},
}

// LookupResponseLength returns the info for a response-length value.
func LookupResponseLength(l ResponseLength) (ResponseLengthInfo, bool) {
	for _, info := range ResponseLengths {
		if info.Value == l {
			return info, true
		}
	}
	return ResponseLengthInfo{}, false
}

// AgentConfig configures one of the two debate agents.
type AgentConfig struct {
	// Standpoint is the position this agent argues for.
	Standpoint string `json:"standpoint"`

	// Personality shapes the agent's reasoning style.
	Personality Personality `json:"personality"`

	// ResponseLength bounds the target word count per turn.
	ResponseLength ResponseLength `json:"response_length"`
}

// Debate is the persisted record of a debate between two agents.
// Agent indexes are 0 and 1 throughout; index 0 always opens.
type Debate struct {
	ID string `json:"id"`

	// Standpoints holds the two opposing positions, one per agent.
	Standpoints [2]string `json:"standpoints"`

	// AgentConfigs holds the per-agent configuration, indexed like Standpoints.
	AgentConfigs [2]AgentConfig `json:"agent_configs"`

	// TimeLimitMinutes is the wall-clock budget for the whole run.
	TimeLimitMinutes int `json:"time_limit_minutes"`

	// ResponseDelaySeconds is converted to a per-fragment pacing delay
	// (seconds * 1000 / 20 ms) to produce a human-speed typing effect.
	ResponseDelaySeconds float64 `json:"response_delay_seconds"`

	// StepByStepMode requires an explicit trigger before every turn after
	// the first. Mutually exclusive with AutoPauseEveryNTurns.
	StepByStepMode bool `json:"step_by_step_mode"`

	// MaxTurns, when non-zero, is a hard ceiling on completed turns.
	MaxTurns int `json:"max_turns,omitempty"`

	// AutoPauseEveryNTurns, when non-zero, pauses the run each time the
	// turn counter reaches a multiple of N. Ignored in step-by-step mode.
	AutoPauseEveryNTurns int `json:"auto_pause_every_n_turns,omitempty"`

	// Temperature is passed through to the completion provider.
	Temperature float64 `json:"temperature"`

	Status    Status    `json:"status"`
	EndReason EndReason `json:"end_reason,omitempty"`

	// TurnCount is the persisted count of completed turns.
	TurnCount int `json:"turn_count"`

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// PacingDelay returns the per-fragment delay derived from
// ResponseDelaySeconds. Zero means fragments are relayed at full speed.
func (d *Debate) PacingDelay() time.Duration {
	ms := int(d.ResponseDelaySeconds * 1000 / 20)
	return time.Duration(ms) * time.Millisecond
}

// TimeLimit returns the wall-clock budget as a duration.
func (d *Debate) TimeLimit() time.Duration {
	return time.Duration(d.TimeLimitMinutes) * time.Minute
}

// Opponent returns the index of the other agent.
func Opponent(agentIndex int) int {
	if agentIndex == 0 {
		return 1
	}
	return 0
}

// Message is one persisted agent response. Messages are append-only except
// for content replacement (which marks the message edited) and rewind
// (bulk deletion of everything newer than a reference message).
type Message struct {
	ID         string    `json:"id"`
	DebateID   string    `json:"debate_id"`
	AgentIndex int       `json:"agent_index"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Edited     bool      `json:"edited"`
}
