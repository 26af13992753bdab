package events

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

func ev(i int) domain.MintEvent {
	return domain.MintEvent{Source: domain.SourceSPLToken, Mint: fmt.Sprintf("m%d", i), Ts: int64(i)}
}

func mints(es []domain.MintEvent) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Mint
	}
	return out
}

func TestLimitFloor(t *testing.T) {
	assert.Equal(t, MinLimit, NewStore(10, zap.NewNop()).Limit())
	assert.Equal(t, DefaultLimit, NewStore(0, zap.NewNop()).Limit())
	assert.Equal(t, 120, NewStore(120, zap.NewNop()).Limit())
}

func TestPushEvictsOldestFIFO(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	total := MinLimit*3 + 7
	for i := 0; i < total; i++ {
		require.NoError(t, s.Push(ev(i)))
		assert.LessOrEqual(t, s.Size(), MinLimit)
	}

	snap := s.Snapshot()
	require.Len(t, snap, MinLimit)
	for i, e := range snap {
		assert.Equal(t, fmt.Sprintf("m%d", total-1-i), e.Mint)
	}
}

func TestSnapshotNewestFirstAndIsolated(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Push(ev(i)))
	}
	snap := s.Snapshot()
	assert.Equal(t, []string{"m2", "m1", "m0"}, mints(snap))

	require.NoError(t, s.Push(ev(3)))
	assert.Equal(t, []string{"m2", "m1", "m0"}, mints(snap))
	assert.Equal(t, "m3", s.Snapshot()[0].Mint)
}

func TestPushKeepsTimestampsNonDecreasing(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	require.NoError(t, s.Push(domain.MintEvent{Mint: "a", Ts: 100}))
	require.NoError(t, s.Push(domain.MintEvent{Mint: "b", Ts: 90}))
	snap := s.Snapshot()
	assert.Equal(t, int64(100), snap[0].Ts)
	assert.Equal(t, uint64(2), snap[0].Seq)
	assert.Equal(t, uint64(1), snap[1].Seq)
}

func TestStoredDetailsAreCopied(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	d := &domain.Details{Activity1m: 1}
	require.NoError(t, s.Push(domain.MintEvent{Mint: "a", Details: d}))
	d.Activity1m = 99
	assert.Equal(t, 1, s.Snapshot()[0].Details.Activity1m)
}

func TestSetLimitShrinkAndGrow(t *testing.T) {
	s := NewStore(100, zap.NewNop())
	for i := 0; i < 80; i++ {
		require.NoError(t, s.Push(ev(i)))
	}

	s.SetLimit(10) // clamped to 50
	assert.Equal(t, MinLimit, s.Limit())
	assert.Equal(t, MinLimit, s.Size())
	snap := s.Snapshot()
	assert.Equal(t, "m79", snap[0].Mint)
	assert.Equal(t, "m30", snap[len(snap)-1].Mint)

	s.SetLimit(200)
	require.NoError(t, s.Push(ev(80)))
	assert.Equal(t, MinLimit+1, s.Size())
	assert.Equal(t, "m80", s.Snapshot()[0].Mint)
	assert.Equal(t, "m30", s.Snapshot()[MinLimit].Mint)
}

func TestSubscriberReceivesInOrder(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	sub := s.SubscribeBuffered(1000)
	defer sub.Unsubscribe()

	for i := 0; i < 500; i++ {
		require.NoError(t, s.Push(ev(i)))
	}
	for i := 0; i < 500; i++ {
		e := <-sub.C()
		assert.Equal(t, fmt.Sprintf("m%d", i), e.Mint)
	}
}

func TestSlowSubscriberDoesNotBlockProducer(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	slow := s.SubscribeBuffered(2)
	fast := s.SubscribeBuffered(100)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = s.Push(ev(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked on a slow subscriber")
	}

	assert.Equal(t, uint64(8), slow.Dropped())
	assert.Equal(t, uint64(0), fast.Dropped())
	assert.Equal(t, "m0", (<-slow.C()).Mint)
	assert.Equal(t, "m1", (<-slow.C()).Mint)
	assert.Equal(t, uint64(8), s.Stats()["dropped"])
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	sub := s.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()

	_, ok := <-sub.C()
	assert.False(t, ok)
	require.NoError(t, s.Push(ev(1)))
	assert.Equal(t, 0, s.Stats()["subscribers"])
}

func TestCloseStopsEverything(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	sub := s.Subscribe()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Push(ev(1)), ErrStoreClosed)

	late := s.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)
	late.Unsubscribe()
}

func TestConcurrentPushersAndReaders(t *testing.T) {
	s := NewStore(MinLimit, zap.NewNop())
	sub := s.SubscribeBuffered(10_000)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = s.Push(domain.MintEvent{Mint: fmt.Sprintf("w%d-%d", w, i), Ts: time.Now().UnixMilli()})
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := s.Snapshot()
				assert.LessOrEqual(t, len(snap), MinLimit)
				for j := 1; j < len(snap); j++ {
					assert.GreaterOrEqual(t, snap[j-1].Ts, snap[j].Ts)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, MinLimit, s.Size())
	assert.Equal(t, 1600, len(sub.C()))

	// Per-writer order is preserved in the subscriber stream.
	last := map[string]int{}
	for i := 0; i < 1600; i++ {
		e := <-sub.C()
		var w, n int
		_, err := fmt.Sscanf(e.Mint, "w%d-%d", &w, &n)
		require.NoError(t, err)
		key := fmt.Sprint(w)
		if prev, ok := last[key]; ok {
			assert.Greater(t, n, prev)
		}
		last[key] = n
	}
}
