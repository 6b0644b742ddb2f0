package debate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPersonality(t *testing.T) {
	info, ok := LookupPersonality(PersonalitySkeptic)
	require.True(t, ok)
	assert.Equal(t, "Skeptic", info.Label)
	assert.NotEmpty(t, info.Description)

	_, ok = LookupPersonality("stoic")
	assert.False(t, ok)
}

func TestLookupResponseLength(t *testing.T) {
	tests := []struct {
		value    ResponseLength
		minWords int
		maxWords int
	}{
		{ResponseShort, 20, 50},
		{ResponseMedium, 50, 100},
		{ResponseLong, 100, 200},
	}

	for _, tt := range tests {
		info, ok := LookupResponseLength(tt.value)
		require.True(t, ok, "length %q", tt.value)
		assert.Equal(t, tt.minWords, info.MinWords)
		assert.Equal(t, tt.maxWords, info.MaxWords)
	}

	_, ok := LookupResponseLength("verbose")
	assert.False(t, ok)
}

func TestPacingDelay(t *testing.T) {
	d := &Debate{ResponseDelaySeconds: 5}
	assert.Equal(t, 250*time.Millisecond, d.PacingDelay())

	d.ResponseDelaySeconds = 0
	assert.Equal(t, time.Duration(0), d.PacingDelay())
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, 1, Opponent(0))
	assert.Equal(t, 0, Opponent(1))
}

func floatPtr(v float64) *float64 { return &v }

func TestApplyDefaults(t *testing.T) {
	p := &CreateParams{
		Standpoints: []string{"Free will exists", "Free will is an illusion"},
	}
	p.ApplyDefaults()

	assert.Equal(t, 5, p.TimeLimitMinutes)
	require.NotNil(t, p.Temperature)
	assert.Equal(t, 0.7, *p.Temperature)
	require.NotNil(t, p.ResponseDelaySeconds)
	assert.Equal(t, 5.0, *p.ResponseDelaySeconds)
	assert.Equal(t, "Free will exists", p.AgentConfigs[0].Standpoint)
	assert.Equal(t, PersonalityPragmatic, p.AgentConfigs[0].Personality)
	assert.Equal(t, ResponseMedium, p.AgentConfigs[1].ResponseLength)
}

func TestApplyDefaults_ExplicitZeroKept(t *testing.T) {
	p := &CreateParams{
		Standpoints:          []string{"a", "b"},
		ResponseDelaySeconds: floatPtr(0),
		Temperature:          floatPtr(0),
	}
	p.ApplyDefaults()

	assert.Equal(t, 0.0, *p.ResponseDelaySeconds)
	assert.Equal(t, 0.0, *p.Temperature)
	assert.NoError(t, p.Validate())
}

func TestApplyDefaults_StepModeClearsAutoPause(t *testing.T) {
	p := &CreateParams{
		Standpoints:          []string{"a", "b"},
		StepByStepMode:       true,
		AutoPauseEveryNTurns: 3,
	}
	p.ApplyDefaults()
	assert.Zero(t, p.AutoPauseEveryNTurns)
}

func TestValidate(t *testing.T) {
	valid := func() *CreateParams {
		p := &CreateParams{
			Standpoints: []string{"a", "b"},
		}
		p.ApplyDefaults()
		return p
	}

	tests := []struct {
		name    string
		mutate  func(*CreateParams)
		wantErr error
	}{
		{"valid", func(p *CreateParams) {}, nil},
		{"one standpoint", func(p *CreateParams) { p.Standpoints = p.Standpoints[:1] }, ErrStandpointCount},
		{"three standpoints", func(p *CreateParams) { p.Standpoints = append(p.Standpoints, "c") }, ErrStandpointCount},
		{"no standpoints", func(p *CreateParams) { p.Standpoints = nil }, ErrStandpointCount},
		{"missing standpoint", func(p *CreateParams) { p.Standpoints[1] = "" }, ErrMissingStandpoint},
		{"zero time limit", func(p *CreateParams) { p.TimeLimitMinutes = 0 }, ErrInvalidTimeLimit},
		{"temperature too high", func(p *CreateParams) { p.Temperature = floatPtr(2.5) }, ErrInvalidTemperature},
		{"unset temperature", func(p *CreateParams) { p.Temperature = nil }, ErrInvalidTemperature},
		{"negative max turns", func(p *CreateParams) { p.MaxTurns = -1 }, ErrInvalidMaxTurns},
		{"negative auto pause", func(p *CreateParams) { p.AutoPauseEveryNTurns = -2 }, ErrInvalidAutoPause},
		{"negative delay", func(p *CreateParams) { p.ResponseDelaySeconds = floatPtr(-1) }, ErrInvalidDelay},
		{"unset delay", func(p *CreateParams) { p.ResponseDelaySeconds = nil }, ErrInvalidDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_UnknownEnums(t *testing.T) {
	p := &CreateParams{Standpoints: []string{"a", "b"}}
	p.ApplyDefaults()
	p.AgentConfigs[0].Personality = "stoic"
	assert.ErrorContains(t, p.Validate(), "unknown personality")

	p = &CreateParams{Standpoints: []string{"a", "b"}}
	p.ApplyDefaults()
	p.AgentConfigs[1].ResponseLength = "verbose"
	assert.ErrorContains(t, p.Validate(), "unknown response length")
}

func TestEventJSON(t *testing.T) {
	ev := WaitingForNextEvent(1)
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"waiting-for-next","nextAgentIndex":1}`, string(b))

	// nextAgentIndex 0 must survive serialization; a plain int field would
	// be dropped by omitempty.
	ev = WaitingForNextEvent(0)
	b, err = json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"waiting-for-next","nextAgentIndex":0}`, string(b))

	b, err = json.Marshal(TokenEvent(1, "hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"token","agentIndex":1,"content":"hello"}`, string(b))

	b, err = json.Marshal(TokenEvent(0, "hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"token","agentIndex":0,"content":"hi"}`, string(b))

	b, err = json.Marshal(DebateEndEvent(EndReasonMaxTurns))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"debate-end","reason":"max-turns"}`, string(b))
}
