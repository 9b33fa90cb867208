package voice

import "encoding/json"

// Wire types for the Gemini Live BidiGenerateContent websocket protocol.
// Only the subset the session uses is modeled; unknown fields are ignored.

type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

type GenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type SetupPayload struct {
	Model             string            `json:"model"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

// SetupMessage is the first client frame on a live stream.
type SetupMessage struct {
	Setup SetupPayload `json:"setup"`
}

type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks"`
}

// RealtimeInputMessage carries one encoded capture chunk upstream.
type RealtimeInputMessage struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type ToolCallPayload struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type ToolResponsePayload struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

// ToolResponseMessage acknowledges tool calls so the remote side never stalls.
type ToolResponseMessage struct {
	ToolResponse ToolResponsePayload `json:"toolResponse"`
}

type ServerContent struct {
	ModelTurn    *Content `json:"modelTurn,omitempty"`
	TurnComplete bool     `json:"turnComplete,omitempty"`
	Interrupted  bool     `json:"interrupted,omitempty"`
}

// ServerMessage is the union of inbound frame kinds.
type ServerMessage struct {
	SetupComplete *struct{}        `json:"setupComplete,omitempty"`
	ServerContent *ServerContent   `json:"serverContent,omitempty"`
	ToolCall      *ToolCallPayload `json:"toolCall,omitempty"`
	GoAway        *struct{}        `json:"goAway,omitempty"`
}
