package debate

import (
	"errors"
	"fmt"
)

// Validation errors returned by CreateParams.Validate.
var (
	ErrStandpointCount    = errors.New("exactly two standpoints are required")
	ErrMissingStandpoint  = errors.New("both standpoints are required")
	ErrInvalidTimeLimit   = errors.New("time limit must be positive")
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	ErrInvalidMaxTurns    = errors.New("max turns cannot be negative")
	ErrInvalidAutoPause   = errors.New("auto-pause interval cannot be negative")
	ErrInvalidDelay       = errors.New("response delay cannot be negative")
)

// CreateParams carries everything needed to create a debate. Callers must
// run ApplyDefaults and then Validate before handing the params to a store.
//
// ResponseDelaySeconds and Temperature are pointers so an explicit zero
// (full-speed streaming, deterministic sampling) is distinguishable from an
// omitted field.
type CreateParams struct {
	Standpoints          []string       `json:"standpoints"`
	AgentConfigs         [2]AgentConfig `json:"agent_configs"`
	TimeLimitMinutes     int            `json:"time_limit_minutes"`
	ResponseDelaySeconds *float64       `json:"response_delay_seconds,omitempty"`
	StepByStepMode       bool           `json:"step_by_step_mode"`
	MaxTurns             int            `json:"max_turns,omitempty"`
	AutoPauseEveryNTurns int            `json:"auto_pause_every_n_turns,omitempty"`
	Temperature          *float64       `json:"temperature,omitempty"`
}

// ApplyDefaults fills unset run parameters with the standard defaults and
// enforces the step-mode/auto-pause exclusion by clearing the auto-pause
// interval when step mode is on.
func (p *CreateParams) ApplyDefaults() {
	if p.TimeLimitMinutes == 0 {
		p.TimeLimitMinutes = 5
	}
	if p.ResponseDelaySeconds == nil {
		delay := 5.0
		p.ResponseDelaySeconds = &delay
	}
	if p.Temperature == nil {
		temp := 0.7
		p.Temperature = &temp
	}
	for i := range p.AgentConfigs {
		if p.AgentConfigs[i].Standpoint == "" && i < len(p.Standpoints) {
			p.AgentConfigs[i].Standpoint = p.Standpoints[i]
		}
		if p.AgentConfigs[i].Personality == "" {
			p.AgentConfigs[i].Personality = PersonalityPragmatic
		}
		if p.AgentConfigs[i].ResponseLength == "" {
			p.AgentConfigs[i].ResponseLength = ResponseMedium
		}
	}
	if p.StepByStepMode {
		p.AutoPauseEveryNTurns = 0
	}
}

// Validate rejects malformed parameters before any state is mutated.
// ApplyDefaults must have run first; unset optional fields read as invalid.
func (p *CreateParams) Validate() error {
	if len(p.Standpoints) != 2 {
		return ErrStandpointCount
	}
	for i, sp := range p.Standpoints {
		if sp == "" {
			return fmt.Errorf("standpoint %d: %w", i, ErrMissingStandpoint)
		}
	}
	if p.TimeLimitMinutes <= 0 {
		return ErrInvalidTimeLimit
	}
	if p.Temperature == nil || *p.Temperature < 0 || *p.Temperature > 2 {
		return ErrInvalidTemperature
	}
	if p.MaxTurns < 0 {
		return ErrInvalidMaxTurns
	}
	if p.AutoPauseEveryNTurns < 0 {
		return ErrInvalidAutoPause
	}
	if p.ResponseDelaySeconds == nil || *p.ResponseDelaySeconds < 0 {
		return ErrInvalidDelay
	}
	for i, ac := range p.AgentConfigs {
		if _, ok := LookupPersonality(ac.Personality); !ok {
			return fmt.Errorf("agent %d: unknown personality %q", i, ac.Personality)
		}
		if _, ok := LookupResponseLength(ac.ResponseLength); !ok {
			return fmt.Errorf("agent %d: unknown response length %q", i, ac.ResponseLength)
		}
	}
	return nil
}
