package routing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/internal/testutil"
)

func TestHistoryRingEvictsOldest(t *testing.T) {
	ring := newHistoryRing(3)
	for i := 0; i < 5; i++ {
		msg := testutil.NewMessageBuilder().From(fmt.Sprintf("s%d", i)).To("x").Request()
		ring.append(DirectionOutgoing, msg)
	}

	entries := ring.snapshot(HistoryFilter{})
	require.Len(t, entries, 3)
	assert.Equal(t, "s2", entries[0].Message.Sender)
	assert.Equal(t, "s3", entries[1].Message.Sender)
	assert.Equal(t, "s4", entries[2].Message.Sender)
	assert.Equal(t, 3, ring.len())
}

func TestHistoryFilterByAgent(t *testing.T) {
	r := New()
	finance := testutil.NewMessageBuilder().From("caller").To("finance").Request()
	perf := testutil.NewMessageBuilder().From("performance").To("docgen").Request()
	r.Send(finance)
	r.Send(perf)

	// Sender-or-recipient match: only the outgoing request names finance;
	// the error envelope goes router -> caller.
	got := r.History(HistoryFilter{Agent: "finance"})
	require.Len(t, got, 1)
	assert.Equal(t, finance.ID, got[0].Message.ID)

	// "performance" matches its outgoing request (as sender) and the error
	// envelope addressed back to it (as recipient).
	got = r.History(HistoryFilter{Agent: "performance"})
	require.Len(t, got, 2)
	assert.Equal(t, perf.ID, got[0].Message.ID)
	assert.Equal(t, DirectionError, got[1].Direction)
}

func TestHistoryFilterByKind(t *testing.T) {
	r := New()
	r.Send(testutil.NewMessageBuilder().From("caller").To("ghost").Request())

	errors := r.History(HistoryFilter{Kind: core.KindError})
	require.Len(t, errors, 1)
	assert.Equal(t, core.KindError, errors[0].Message.Kind)

	requests := r.History(HistoryFilter{Kind: core.KindRequest})
	require.Len(t, requests, 1)
	assert.Equal(t, core.KindRequest, requests[0].Message.Kind)
}

func TestHistoryLimitKeepsMostRecent(t *testing.T) {
	ring := newHistoryRing(10)
	for i := 0; i < 6; i++ {
		msg := testutil.NewMessageBuilder().From(fmt.Sprintf("s%d", i)).To("x").Request()
		ring.append(DirectionOutgoing, msg)
	}

	got := ring.snapshot(HistoryFilter{Limit: 2})
	require.Len(t, got, 2)
	assert.Equal(t, "s4", got[0].Message.Sender)
	assert.Equal(t, "s5", got[1].Message.Sender)

	// Limit larger than history returns everything, order preserved.
	all := ring.snapshot(HistoryFilter{Limit: 100})
	require.Len(t, all, 6)
	assert.Equal(t, "s0", all[0].Message.Sender)
}

func TestHistoryQueryDoesNotMutate(t *testing.T) {
	ring := newHistoryRing(10)
	ring.append(DirectionOutgoing, testutil.NewMessageBuilder().To("x").Request())
	ring.snapshot(HistoryFilter{Limit: 1})
	ring.snapshot(HistoryFilter{Agent: "nobody"})
	assert.Equal(t, 1, ring.len())
}

func TestClearHistory(t *testing.T) {
	r := New()
	r.Send(testutil.NewMessageBuilder().From("caller").To("ghost").Request())
	require.NotEmpty(t, r.History(HistoryFilter{}))

	r.ClearHistory()
	assert.Empty(t, r.History(HistoryFilter{}))
	assert.Equal(t, 0, r.Stats().HistorySize)
}
