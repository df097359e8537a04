package mutation

import (
	"context"
	"log/slog"
)

// Broker is the only way fuzzing perturbs the protocol engine: it wraps a
// stage name and an optional session-data map around a producer closure,
// asks the attached Fuzzer first, and falls through to the producer when
// no mutation is returned.
type Broker struct {
	Fuzzer Fuzzer
	Logger StageLogger
}

// NewBroker builds a Broker with NopFuzzer attached; callers wire a real
// Fuzzer (typically RPCFuzzer) to enable mutation.
func NewBroker() *Broker {
	return &Broker{Fuzzer: NopFuzzer{}}
}

// Stage runs producer under the default background context. Most call
// sites in package usb and package request have no request-scoped context
// available (descriptor serializers are plain closures), so this is the
// common entry point; StageContext is for callers that do have one.
func (b *Broker) Stage(stage string, sessionData map[string][]byte, producer func() []byte) []byte {
	return b.StageContext(context.Background(), stage, sessionData, producer)
}

// StageContext is Stage with an explicit context, honored by RPCFuzzer for
// cancellation and deadlines.
func (b *Broker) StageContext(ctx context.Context, stage string, sessionData map[string][]byte, producer func() []byte) []byte {
	if b.Logger != nil {
		b.Logger.LogStage(stage)
	}
	if b.Fuzzer != nil {
		if mutated := b.Fuzzer.GetMutation(ctx, stage, sessionData); mutated != nil {
			slog.Debug("using fuzzer mutation", "stage", stage, "len", len(mutated))
			return mutated
		}
	}
	slog.Debug("calling stage producer", "stage", stage)
	return producer()
}
