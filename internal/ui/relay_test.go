package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

func mintMsg(mint string) MintMsg {
	return MintMsg{Event: domain.MintEvent{Source: domain.SourceSPLToken, Mint: mint}}
}

func TestRelayDropsMintsWithoutBlocking(t *testing.T) {
	msgs := make(chan tea.Msg, 4)
	relay := newRelay(msgs, zap.NewNop(), time.Hour, time.Hour)
	defer relay.Close()

	start := time.Now()
	for i := 0; i < 100; i++ {
		relay.Send(mintMsg("m"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	st := relay.Stats()
	assert.Equal(t, uint64(4), st.Delivered)
	assert.Equal(t, uint64(96), st.Dropped)
	assert.False(t, st.StatusPending)
}

func TestRelayKeepsStatusUntilThereIsRoom(t *testing.T) {
	msgs := make(chan tea.Msg, 2)
	relay := newRelay(msgs, zap.NewNop(), time.Hour, time.Hour)
	defer relay.Close()

	relay.Send(mintMsg("a1"))
	relay.Send(mintMsg("a2"))
	relay.Send(FeedStatusMsg{Connected: false, Err: errors.New("reset")})
	assert.True(t, relay.Stats().StatusPending)
	assert.Equal(t, uint64(0), relay.Stats().Dropped)

	<-msgs
	<-msgs
	relay.Send(mintMsg("b"))

	// The status goes out before the mint that freed room for it.
	st, ok := (<-msgs).(FeedStatusMsg)
	require.True(t, ok)
	assert.False(t, st.Connected)
	assert.Equal(t, "b", (<-msgs).(MintMsg).Event.Mint)
	assert.False(t, relay.Stats().StatusPending)
}

func TestRelayNewerStatusReplacesPending(t *testing.T) {
	msgs := make(chan tea.Msg, 1)
	relay := newRelay(msgs, zap.NewNop(), 10*time.Millisecond, time.Hour)
	defer relay.Close()

	relay.Send(mintMsg("a"))
	relay.Send(FeedStatusMsg{Connected: true})
	relay.Send(FeedStatusMsg{Connected: false})
	<-msgs

	// The retry loop delivers only the latest status.
	select {
	case msg := <-msgs:
		st, ok := msg.(FeedStatusMsg)
		require.True(t, ok)
		assert.False(t, st.Connected)
	case <-time.After(time.Second):
		t.Fatal("pending status not retried")
	}
	assert.Eventually(t, func() bool { return !relay.Stats().StatusPending }, time.Second, 5*time.Millisecond)
	assert.Empty(t, msgs)
}

func TestRelayReportsDropsAsNotice(t *testing.T) {
	msgs := make(chan tea.Msg, 1)
	relay := newRelay(msgs, zap.NewNop(), time.Hour, 20*time.Millisecond)
	defer relay.Close()

	relay.Send(mintMsg("a"))
	relay.Send(mintMsg("b"))
	relay.Send(mintMsg("c"))
	<-msgs

	select {
	case msg := <-msgs:
		notice, ok := msg.(LogMsg)
		require.True(t, ok, "unexpected %T", msg)
		assert.Equal(t, "warn", notice.Level)
		assert.Contains(t, notice.Message, "2 events skipped")
	case <-time.After(time.Second):
		t.Fatal("no drop notice")
	}
	relay.Close()
	relay.Close()
}
