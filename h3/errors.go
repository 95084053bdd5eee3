package h3

import (
	"fmt"

	"github.com/wireclient/httpcore/wire"
)

// Kind reuses the error taxonomy shared across the whole core (spec §7);
// H3CE only ever produces Configuration, Connection, Protocol, Network,
// Timeout and Internal kinds.
type Kind = wire.Kind

const (
	KindConfiguration = wire.KindConfiguration
	KindConnection    = wire.KindConnection
	KindProtocol      = wire.KindProtocol
	KindNetwork       = wire.KindNetwork
	KindTimeout       = wire.KindTimeout
	KindInternal      = wire.KindInternal
)

// Error is the typed error H3CE's synchronous surface returns
// (SendRequest and Close failures, timeout-config loading). New itself
// never fails. In-stream failures are
// reported as HTTPChunk{Kind: ChunkError} instead, per spec §7.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}
