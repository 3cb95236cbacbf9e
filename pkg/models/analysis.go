package models

import "strings"

// AnalysisResult accumulates the text fragments of one analysis stream in
// arrival order. It is append-only while the stream is live and immutable once
// sealed by Complete or Fail. Not safe for concurrent use; one stream owns it.
type AnalysisResult struct {
	builder strings.Builder
	sealed  bool
	err     error
}

// Append adds one chunk to the accumulated text. Appends after the result is
// sealed are ignored.
func (r *AnalysisResult) Append(chunk string) {
	if r.sealed {
		return
	}

	r.builder.WriteString(chunk)
}

// Complete seals the result on normal end of stream.
func (r *AnalysisResult) Complete() {
	r.sealed = true
}

// Fail seals the result with the stream's terminal error.
func (r *AnalysisResult) Fail(err error) {
	if r.sealed {
		return
	}

	r.sealed = true
	r.err = err
}

func (r *AnalysisResult) Text() string {
	return r.builder.String()
}

func (r *AnalysisResult) Sealed() bool {
	return r.sealed
}

func (r *AnalysisResult) Err() error {
	return r.err
}
