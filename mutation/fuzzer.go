// Package mutation implements the stage-keyed fuzz-injection hook: every
// descriptor serializer and class-response method is wrapped so that, at
// call time, an optional external fuzzer may substitute its output
// verbatim. The protocol engine itself never mutates anything.
package mutation

import "context"

// Fuzzer is consulted by Broker.Stage for every tagged producer call.
// GetMutation returns nil when the stage is not the one currently being
// fuzzed (or the fuzzer is unreachable); a non-nil return is substituted
// verbatim for the producer's own output.
type Fuzzer interface {
	GetMutation(ctx context.Context, stage string, sessionData map[string][]byte) []byte
}

// NopFuzzer never returns a mutation. It is the degrade path used when no
// external fuzzer is attached, so stage-tagged producers run unmodified.
type NopFuzzer struct{}

func (NopFuzzer) GetMutation(context.Context, string, map[string][]byte) []byte { return nil }
