package contract

// Task is what the caller wants back: raw search hits or a generated answer.
type Task string

const (
	TaskSearchOnly     Task = "search"
	TaskChatWithSearch Task = "chat"
)

// Engine selects which of the two parallel pipelines serves the request.
// Direct wires the stages by hand; Kernel routes retrieval and persona
// selection through the plugin registry.
type Engine string

const (
	EngineDirect Engine = "direct"
	EngineKernel Engine = "kernel"
)

// Persona is the role the model plays when answering.
type Persona string

const (
	PersonaAnalyst   Persona = "analyst"
	PersonaExecutive Persona = "executive"
)

// Query is a single inbound request. Created per call, never reused.
type Query struct {
	Text    string  `json:"text"`
	Task    Task    `json:"task"`
	Engine  Engine  `json:"engine"`
	Persona Persona `json:"persona,omitempty"`
}

// Snippet is one ranked hit from the document search service. Order of a
// snippet slice is the service's relevance order and is final.
type Snippet struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id,omitempty"`
}

// AssembledContext is the bounded context string built from snippets.
// Text never exceeds the limit it was assembled under.
type AssembledContext struct {
	Text        string `json:"text"`
	Truncated   bool   `json:"truncated"`
	SourceCount int    `json:"source_count"`
}

// Answer is the result of a pipeline run. Degraded marks answers produced
// despite a recovered upstream failure.
type Answer struct {
	Text     string            `json:"text"`
	Task     Task              `json:"task"`
	Engine   Engine            `json:"engine"`
	Persona  Persona           `json:"persona,omitempty"`
	Context  *AssembledContext `json:"context,omitempty"`
	Sources  []Snippet         `json:"sources,omitempty"`
	Degraded bool              `json:"degraded"`
}
