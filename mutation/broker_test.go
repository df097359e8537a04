package mutation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umap2/umap2go/mutation"
)

type stubFuzzer struct {
	mutated []byte
	gotCtx  context.Context
	gotTag  string
	gotData map[string][]byte
}

func (f *stubFuzzer) GetMutation(ctx context.Context, stage string, sessionData map[string][]byte) []byte {
	f.gotCtx = ctx
	f.gotTag = stage
	f.gotData = sessionData
	return f.mutated
}

func TestStageFallsThroughToProducerWhenFuzzerReturnsNil(t *testing.T) {
	b := mutation.NewBroker()
	called := false
	result := b.Stage("device.descriptor", nil, func() []byte {
		called = true
		return []byte{0x01, 0x02}
	})

	assert.True(t, called)
	assert.Equal(t, []byte{0x01, 0x02}, result)
}

func TestStageUsesFuzzerMutationWhenPresent(t *testing.T) {
	fuzzer := &stubFuzzer{mutated: []byte{0xff}}
	b := &mutation.Broker{Fuzzer: fuzzer}

	called := false
	result := b.Stage("device.descriptor", map[string][]byte{"data": {0x00}}, func() []byte {
		called = true
		return []byte{0x01}
	})

	assert.False(t, called)
	assert.Equal(t, []byte{0xff}, result)
	assert.Equal(t, "device.descriptor", fuzzer.gotTag)
}

func TestStageLogsStageNameWhenLoggerAttached(t *testing.T) {
	logger := &mutation.MemoryStageLogger{}
	b := mutation.NewBroker()
	b.Logger = logger

	b.Stage("config.descriptor", nil, func() []byte { return nil })
	b.Stage("interface.descriptor", nil, func() []byte { return nil })

	require.Len(t, logger.Stages, 2)
	assert.Equal(t, []string{"config.descriptor", "interface.descriptor"}, logger.Stages)
}

func TestStageContextPassedThroughToFuzzer(t *testing.T) {
	fuzzer := &stubFuzzer{}
	b := &mutation.Broker{Fuzzer: fuzzer}

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	b.StageContext(ctx, "ep.in", nil, func() []byte { return []byte{0x00} })

	assert.Equal(t, "marker", fuzzer.gotCtx.Value(ctxKey{}))
}

func TestNopFuzzerAlwaysDefersToProducer(t *testing.T) {
	f := mutation.NopFuzzer{}
	result := f.GetMutation(context.Background(), "anything", nil)
	assert.Nil(t, result)
}
