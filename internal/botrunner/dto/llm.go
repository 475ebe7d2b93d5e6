package dto

// SchemaType mirrors the JSON schema primitive types.
type SchemaType string

const (
	SchemaObject  SchemaType = "object"
	SchemaString  SchemaType = "string"
	SchemaBoolean SchemaType = "boolean"
	SchemaInteger SchemaType = "integer"
	SchemaNumber  SchemaType = "number"
	SchemaArray   SchemaType = "array"
)

// Schema is a provider-neutral hint describing the expected JSON output.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// GenerateRequest is one call to a generative backend.
type GenerateRequest struct {
	Prompt      string
	Schema      *Schema
	Temperature *float32
}

// GenerateResponse carries the raw text returned by a backend. Callers must
// parse it defensively; a schema hint does not guarantee conformance.
type GenerateResponse struct {
	Text     string
	Provider string
}
