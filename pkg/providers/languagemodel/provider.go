// Package languagemodel defines the capability interface for step synthesis:
// turning free-form analysis text into an ordered list of browser
// instructions via a structured language-model call.
package languagemodel

import "context"

// Provider synthesizes browser automation steps from analysis text. The
// returned list is schema-validated; a response that does not validate as an
// array of non-empty strings surfaces as an error, never as a partial list.
type Provider interface {
	SynthesizeSteps(ctx context.Context, analysis, extraInfo string) ([]string, error)
}
