package jsonpath

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/wireclient/httpcore/internal/obs"
	"github.com/wireclient/httpcore/internal/streamutil"
)

// StreamItem is one element of an ExecuteStream output channel: either a
// deserialized match or a terminal error (spec §4.4: "Any JSON parse error
// or deserialization failure emits an error chunk and terminates the
// stream").
type StreamItem[T any] struct {
	Value T
	Err   error
}

// ExecuteStream incrementally parses a sequence of concatenated JSON
// documents from r, evaluates plan against each once it is fully
// materialized, and deserializes every matching node into T. The returned
// channel has the shared streaming capacity (spec §5) and is closed when
// r is exhausted or an error terminates the stream.
func ExecuteStream[T any](ctx context.Context, plan *Plan, r io.Reader, log *zap.Logger) <-chan StreamItem[T] {
	log = obs.Named(log, "jsonpath")
	out := streamutil.NewChannel[StreamItem[T]]()
	go func() {
		defer close(out)
		dec := NewDecoder(r)
		for {
			root, err := DecodeNext(dec)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				wrapped := executeErr(err, "malformed JSON input")
				log.Debug("jsonpath stream: decode failure", zap.Error(wrapped))
				streamutil.Send(ctx, out, StreamItem[T]{Err: wrapped})
				return
			}

			nodes, err := Execute(plan, root)
			if err != nil {
				wrapped := executeErr(err, "plan execution failed")
				streamutil.Send(ctx, out, StreamItem[T]{Err: wrapped})
				return
			}

			for _, n := range nodes {
				item, convErr := convert[T](n.Value)
				if convErr != nil {
					wrapped := executeErr(convErr, "deserialization into target type failed")
					streamutil.Send(ctx, out, StreamItem[T]{Err: wrapped})
					return
				}
				if !streamutil.Send(ctx, out, StreamItem[T]{Value: item}) {
					return
				}
			}
		}
	}()
	return out
}

// convert re-marshals a matched Value through encoding/json into the
// caller's target type, keeping the conversion generic without a second
// hand-written tree walker.
func convert[T any](v *Value) (T, error) {
	var zero T
	raw, err := json.Marshal(v.ToPlain())
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	return out, nil
}
