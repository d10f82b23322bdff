package health

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
	"github.com/vietddude/subgraph-monitor/internal/core/status"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeSubgraph struct {
	status *domain.IndexingStatus
	err    error
	calls  atomic.Int32
}

func (f *fakeSubgraph) FetchIndexingStatus(ctx context.Context) (*domain.IndexingStatus, error) {
	f.calls.Add(1)
	return f.status, f.err
}

type fakeChain struct {
	head  *domain.ChainHead
	err   error
	calls atomic.Int32
}

func (f *fakeChain) FetchChainHead(ctx context.Context) (*domain.ChainHead, error) {
	f.calls.Add(1)
	return f.head, f.err
}

type recordingObserver struct {
	mu       sync.Mutex
	verdicts []domain.HealthVerdict
}

func (r *recordingObserver) Observe(v domain.HealthVerdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.verdicts)
}

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

// =============================================================================
// Tests
// =============================================================================

func TestPoller_CheckOnce_PublishesAndObserves(t *testing.T) {
	sg := &fakeSubgraph{status: indexed(100, false)}
	ch := &fakeChain{head: headAt(100)}
	store := status.NewStore()
	obs := &recordingObserver{}

	p := NewPoller(sg, ch, store, obs, time.Minute)
	p.now = fixedClock(checkedAt)

	v := p.CheckOnce(context.Background())

	want := domain.HealthVerdict{Healthy: true, SyncedBlockHeight: 100, ChainHeadBlockHeight: 100, LastChecked: checkedAt}
	assert.Equal(t, want, v)
	assert.Equal(t, want, store.Load())
	require.Equal(t, 1, obs.count())
	assert.Equal(t, want, obs.verdicts[0])
}

func TestPoller_CheckOnce_SkipsChainHeadWhenSubgraphFails(t *testing.T) {
	sg := &fakeSubgraph{err: errUpstream}
	ch := &fakeChain{head: headAt(500)}
	store := status.NewStore()

	p := NewPoller(sg, ch, store, nil, time.Minute)
	p.now = fixedClock(checkedAt)

	v := p.CheckOnce(context.Background())

	assert.Equal(t, int32(0), ch.calls.Load())
	assert.Equal(t, domain.HealthVerdict{LastChecked: checkedAt}, v)
	assert.Equal(t, v, store.Load())
}

func TestPoller_CheckOnce_NilStatusWithoutErrorIsFailure(t *testing.T) {
	sg := &fakeSubgraph{}
	ch := &fakeChain{head: headAt(500)}
	store := status.NewStore()

	p := NewPoller(sg, ch, store, nil, time.Minute)
	p.now = fixedClock(checkedAt)

	var v domain.HealthVerdict
	require.NotPanics(t, func() { v = p.CheckOnce(context.Background()) })

	assert.Equal(t, int32(0), ch.calls.Load())
	assert.Equal(t, domain.HealthVerdict{LastChecked: checkedAt}, v)
	assert.Equal(t, v, store.Load())
}

func TestPoller_CheckOnce_QueriesChainHeadDespiteIndexingErrors(t *testing.T) {
	sg := &fakeSubgraph{status: indexed(100, true)}
	ch := &fakeChain{head: headAt(105)}

	p := NewPoller(sg, ch, status.NewStore(), nil, time.Minute)
	v := p.CheckOnce(context.Background())

	assert.Equal(t, int32(1), ch.calls.Load())
	assert.False(t, v.Healthy)
	assert.Equal(t, int64(5), v.BlocksBehind)
}

func TestPoller_CheckOnce_ReplacesPreviousVerdict(t *testing.T) {
	sg := &fakeSubgraph{status: indexed(100, false)}
	ch := &fakeChain{head: headAt(110)}
	store := status.NewStore()

	p := NewPoller(sg, ch, store, nil, time.Minute)
	p.CheckOnce(context.Background())
	require.Equal(t, int64(110), store.Load().ChainHeadBlockHeight)

	// Block numbers are not carried over from the previous cycle.
	sg.err = errUpstream
	p.CheckOnce(context.Background())

	got := store.Load()
	assert.False(t, got.Healthy)
	assert.Zero(t, got.SyncedBlockHeight)
	assert.Zero(t, got.ChainHeadBlockHeight)
	assert.Zero(t, got.BlocksBehind)
}

// The timestamp is taken before the upstream calls, not after.
func TestPoller_CheckOnce_TimestampIsCycleStart(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	sg := &fakeSubgraph{status: indexed(1, false)}
	ch := &fakeChain{head: headAt(1)}

	p := NewPoller(sg, ch, status.NewStore(), nil, time.Minute)
	p.now = func() time.Time {
		now := clock
		clock = clock.Add(time.Hour)
		return now
	}

	v := p.CheckOnce(context.Background())
	assert.Equal(t, start.Format(time.RFC3339), v.LastChecked)
}

func TestPoller_CheckOnce_CancelledContextDoesNotPublish(t *testing.T) {
	sg := &fakeSubgraph{err: context.Canceled}
	store := status.NewStore()
	obs := &recordingObserver{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(sg, &fakeChain{}, store, obs, time.Minute)
	p.now = fixedClock(checkedAt)
	p.CheckOnce(ctx)

	assert.Equal(t, domain.HealthVerdict{}, store.Load())
	assert.Zero(t, obs.count())
}

func TestPoller_Start_FirstCheckDoesNotWaitForTick(t *testing.T) {
	obs := &recordingObserver{}
	p := NewPoller(&fakeSubgraph{status: indexed(1, false)}, &fakeChain{head: headAt(1)}, status.NewStore(), obs, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	assert.Eventually(t, func() bool { return obs.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPoller_Start_RunsOnEveryTick(t *testing.T) {
	sg := &fakeSubgraph{status: indexed(100, false)}
	ch := &fakeChain{head: headAt(101)}
	obs := &recordingObserver{}

	p := NewPoller(sg, ch, status.NewStore(), obs, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return obs.count() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPoller_Start_KeepsRunningAfterErrors(t *testing.T) {
	sg := &fakeSubgraph{err: errUpstream}
	obs := &recordingObserver{}

	p := NewPoller(sg, &fakeChain{}, status.NewStore(), obs, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	assert.Eventually(t, func() bool { return sg.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}
