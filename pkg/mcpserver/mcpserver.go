// Package mcpserver exposes the war room as a Model Context Protocol tool
// so agents can convene the board directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/transport"
)

// ToolName is the name of the consultation tool.
const ToolName = "consult_board"

// Config holds MCP server settings.
type Config struct {
	Name    string
	Version string

	// DefaultAPIKey is used when a tool call carries no api_key.
	DefaultAPIKey string
}

// ConsultInput is the consult_board tool input.
type ConsultInput struct {
	APIKey     string `json:"api_key,omitempty" jsonschema:"Gemini API key or OAuth bearer token. Optional when the server has one configured."`
	Prompt     string `json:"prompt" jsonschema:"The pitch to put before the board"`
	Model      string `json:"model,omitempty" jsonschema:"Gemini model identifier"`
	Endpoint   string `json:"endpoint,omitempty" jsonschema:"Full generateContent URL replacing the default"`
	MaxRetries int    `json:"max_retries,omitempty" jsonschema:"Total upstream attempts"`
	Timeout    int    `json:"timeout,omitempty" jsonschema:"Per-attempt timeout in seconds"`
	Persona    string `json:"persona,omitempty" jsonschema:"Board preset: executive or humanized"`
}

// ConsultOutput is the consult_board structured output.
type ConsultOutput struct {
	Conversation []api.SpeakerTurn `json:"conversation"`
	Degraded     bool              `json:"degraded"`
}

func (in ConsultInput) request(defaultKey string) api.ConsultRequest {
	key := in.APIKey
	if key == "" {
		key = defaultKey
	}
	return api.ConsultRequest{
		APIKey:         key,
		Prompt:         in.Prompt,
		Model:          in.Model,
		Endpoint:       in.Endpoint,
		MaxRetries:     in.MaxRetries,
		TimeoutSeconds: in.Timeout,
		Persona:        in.Persona,
	}
}

// New creates an MCP server with the consult_board tool backed by c.
// Recovery, request ID and logging middleware are applied to c.
func New(c transport.Consulter, cfg Config) *mcp.Server {
	if cfg.Name == "" {
		cfg.Name = "warroom"
	}
	if cfg.Version == "" {
		cfg.Version = "v1.0.0"
	}

	c = transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(nil),
	)(c)

	server := mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolName,
		Description: "Put a pitch before a simulated executive board. Returns the board's " +
			"conversation as a list of {agent, emoji, message} turns.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ConsultInput) (*mcp.CallToolResult, ConsultOutput, error) {
		req := in.request(cfg.DefaultAPIKey)

		if apiErr := c.Validate(req); apiErr != nil {
			debug.Log("mcp", "tool call rejected", "param", apiErr.Param, "error", apiErr.Message)
			out := ConsultOutput{Conversation: api.ValidationFailedTurn(apiErr), Degraded: true}
			return textResult(out, true), out, nil
		}

		turns := c.Consult(ctx, req)
		out := ConsultOutput{Conversation: turns, Degraded: api.IsSentinel(turns)}
		return textResult(out, false), out, nil
	})

	return server
}

// textResult renders the conversation as JSON text content.
func textResult(out ConsultOutput, isError bool) *mcp.CallToolResult {
	text, err := json.Marshal(out.Conversation)
	if err != nil {
		text = []byte(`[]`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		IsError: isError,
	}
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// ServeStdio runs server over stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
