// Package streaming holds the stream plumbing shared by the pipeline stages:
// a generic channel pump and the SSE / chunked-text framing helpers. Both the
// analysis chunk relay and the execution event relay are instances of the same
// pattern, so the transform lives here once.
package streaming

import "context"

// TextChunk is one fragment of a provider text stream. A chunk with Err set is
// the terminal failure of the stream; no further chunks follow it.
type TextChunk struct {
	Text string
	Err  error
}

// Pump drains in, applies transform to every value and forwards the kept
// results on the returned channel in arrival order. The output channel closes
// when in closes or ctx is done; stop, when non-nil, runs once right before
// the close and is where the caller releases the stream's context. A transform
// returning keep=false drops the value without breaking the stream.
func Pump[In, Out any](ctx context.Context, in <-chan In, stop func(), transform func(In) (Out, bool)) <-chan Out {
	out := make(chan Out)

	go func() {
		defer close(out)

		if stop != nil {
			defer stop()
		}

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}

				o, keep := transform(v)
				if !keep {
					continue
				}

				select {
				case out <- o:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
