// Package web provides HTTP request and response types for the pipeline API.
package web

// ErrorResponse is the JSON error body of every pipeline endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SynthesizeStepsRequest represents the request body for synthesizing steps
// from an analysis transcript. For backward compatibility the endpoint also
// accepts a bare JSON string as the whole body, treated as the analysis.
type SynthesizeStepsRequest struct {
	Analysis  string `json:"analysis"            validate:"required"`
	ExtraInfo string `json:"extraInfo,omitempty"`
}

// ExecuteWorkflowRequest represents the request body for starting a workflow
// execution. Exactly one of Steps or Task must be provided; Steps wins when
// both are set. Steps is typed loosely so element types can be validated
// explicitly rather than rejected by decoding.
type ExecuteWorkflowRequest struct {
	Steps []any  `json:"steps,omitempty"`
	Task  string `json:"task,omitempty"`
}
