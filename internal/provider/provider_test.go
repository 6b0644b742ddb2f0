package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

func testContext() Context {
	return Context{
		Standpoint:         "Mind is physical",
		OpponentStandpoint: "Mind is non-physical",
		AgentIndex:         0,
		AgentConfig: debate.AgentConfig{
			Standpoint:     "Mind is physical",
			Personality:    debate.PersonalityMaterialist,
			ResponseLength: debate.ResponseShort,
		},
		Temperature: 0.7,
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(testContext())

	assert.Contains(t, prompt, `"Mind is physical"`)
	assert.Contains(t, prompt, `"Mind is non-physical"`)
	assert.Contains(t, prompt, "Materialist")
	assert.Contains(t, prompt, "between 20 and 50 words")
	assert.Contains(t, prompt, "Do not repeat arguments")
}

func TestBuildChatMessages_RoleFlip(t *testing.T) {
	pctx := testContext()
	pctx.History = []debate.Message{
		{AgentIndex: 0, Content: "my opening"},
		{AgentIndex: 1, Content: "their rebuttal"},
	}

	msgs := BuildChatMessages("respond", pctx)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "my opening", msgs[1].Content)
	assert.Equal(t, "user", msgs[2].Role)
	assert.Equal(t, "user", msgs[3].Role)
	assert.Equal(t, "respond", msgs[3].Content)

	// Same history from agent 1's perspective flips the roles.
	pctx.AgentIndex = 1
	msgs = BuildChatMessages("", pctx)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
}

func TestOpeningPrompt(t *testing.T) {
	p := OpeningPrompt("a", "b")
	assert.Contains(t, p, `"a"`)
	assert.Contains(t, p, `"b"`)
	assert.Contains(t, p, "Begin the debate")
}

func TestNewOpenRouter_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenRouter(OpenRouterConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", content)
}

func TestOpenRouter_StreamCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk("Hello"))
		_, _ = io.WriteString(w, sseChunk(" world"))
		_, _ = io.WriteString(w, ": keep-alive comment\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, err := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	stream, err := p.StreamCompletion(context.Background(), "go", testContext())
	require.NoError(t, err)
	defer stream.Close()

	var got []string
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, frag)
	}
	assert.Equal(t, []string{"Hello", " world"}, got)

	// Recv after EOF stays EOF.
	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestOpenRouter_OversizedChunk(t *testing.T) {
	// A single data line well past bufio.Scanner's 64KB default must not
	// surface as a read failure.
	big := strings.Repeat("x", 100*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk(big))
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, err := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	stream, err := p.StreamCompletion(context.Background(), "go", testContext())
	require.NoError(t, err)
	defer stream.Close()

	frag, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, big, frag)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestOpenRouter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.StreamCompletion(context.Background(), "go", testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestOpenRouter_EarlyClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 100; i++ {
			_, _ = io.WriteString(w, sseChunk("frag"))
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, err := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	stream, err := p.StreamCompletion(context.Background(), "go", testContext())
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestScripted(t *testing.T) {
	p := &Scripted{Fragments: []string{"a", "b", "c"}}
	stream, err := p.StreamCompletion(context.Background(), "x", testContext())
	require.NoError(t, err)

	var got []string
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, frag)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Len(t, p.Calls(), 1)
}

func TestScripted_Failure(t *testing.T) {
	p := &Scripted{
		Fragments: []string{"a", "b", "c"},
		Err:       fmt.Errorf("upstream failure"),
		ErrAfter:  2,
	}
	stream, err := p.StreamCompletion(context.Background(), "x", testContext())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := stream.Recv()
		require.NoError(t, err)
	}
	_, err = stream.Recv()
	assert.ErrorContains(t, err, "upstream failure")
}
