package entities

import "time"

// ContextWire is the JSON wire format for context.Context propagation.
type ContextWire struct {
	Deadline  *time.Time `json:"deadline,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
	Canceled  bool       `json:"canceled,omitempty"`
}

// HostRequest is the decoded form of a trigger primitive call as seen by the host.
// Fields not used by an operation are left zero.
type HostRequest struct {
	Op        Operation  `json:"op"`
	Key       []byte     `json:"key,omitempty"`
	Value     []byte     `json:"value,omitempty"`
	Endpoint  string     `json:"endpoint,omitempty"`
	Query     string     `json:"query,omitempty"`
	Name      string     `json:"name,omitempty"`
	Args      []QueryArg `json:"args,omitempty"`
	TTL       int32      `json:"ttl,omitempty"`
	QueryType QueryType  `json:"query_type,omitempty"`
}

// InsertResult is the JSON document returned by a database insert.
type InsertResult struct {
	LastInsertID int64 `json:"lastInsertID"`
}

// LogMessageWire is the JSON payload of the log_msg primitive.
// The record level also travels as the primitive's level scalar.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
	Context   ContextWire   `json:"context"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
// Group attributes are flattened into dotted keys before encoding.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// RunRequest is the payload the host writes into guest memory before calling
// the run export.
type RunRequest struct {
	Context ContextWire `json:"context"`
	Input   []byte      `json:"input,omitempty"`
}

// RunResult is the payload returned by the run export. Exactly one of Output
// or Error is meaningful; an empty Output with no Error is a valid result.
type RunResult struct {
	Output []byte       `json:"output,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}
