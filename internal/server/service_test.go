package server

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addisbingo/engine/internal/bingo"
	"github.com/addisbingo/engine/internal/randutil"
)

// fakeRelay records messages instead of writing to sockets
type fakeRelay struct {
	mu         sync.Mutex
	broadcasts []*Message
	direct     map[string][]*Message
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{direct: make(map[string][]*Message)}
}

func (f *fakeRelay) BroadcastToSession(sessionID string, msg *Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, msg)
}

func (f *fakeRelay) SendToPlayer(playerID string, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[playerID] = append(f.direct[playerID], msg)
	return nil
}

func (f *fakeRelay) broadcastsOfType(mt MessageType) []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Message
	for _, msg := range f.broadcasts {
		if msg.Type == mt {
			out = append(out, msg)
		}
	}
	return out
}

func testGameSettings() GameSettings {
	return GameSettings{
		CallIntervalMs: 3000,
		MinPlayers:     1,
		DerashPercent:  0,
		Bonus:          0,
		Stakes:         []int{10, 20, 50, 100},
	}
}

func newTestService(t *testing.T, clock quartz.Clock, game GameSettings) (*GameService, *fakeRelay) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	registry := bingo.NewRegistry(logger, randutil.New(42), clock,
		bingo.WithRegistryCallInterval(game.CallInterval()),
		bingo.WithRegistryDerashPercent(game.DerashPercent),
		bingo.WithRegistryBonus(game.Bonus),
	)

	relay := newFakeRelay()
	service := NewGameService(registry, relay, logger, clock, game)
	t.Cleanup(service.Stop)
	return service, relay
}

func TestCreateSessionRejectsOffPresetStake(t *testing.T) {
	t.Parallel()
	service, _ := newTestService(t, quartz.NewMock(t), testGameSettings())

	_, err := service.CreateSession(15)
	assert.Error(t, err)

	code, err := service.CreateSession(50)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestJoinStartsSessionAtThreshold(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	game := testGameSettings()
	game.MinPlayers = 2
	service, relay := newTestService(t, mClock, game)

	code, err := service.CreateSession(10)
	require.NoError(t, err)

	board, state, err := service.JoinSession(code, "p1")
	require.NoError(t, err)
	assert.Len(t, board.Numbers(), 25)
	assert.Equal(t, bingo.StatusWaiting, state.Status)
	assert.Empty(t, relay.broadcastsOfType(MessageTypeGameStarted))

	_, state, err = service.JoinSession(code, "p2")
	require.NoError(t, err)
	assert.Equal(t, bingo.StatusStarted, state.Status)

	// The caller goroutine registers its ticker once the game starts
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	assert.Len(t, relay.broadcastsOfType(MessageTypeGameStarted), 1)
}

func TestCallerDrawsOnInterval(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	game := testGameSettings()
	service, relay := newTestService(t, mClock, game)

	code, err := service.CreateSession(10)
	require.NoError(t, err)
	_, _, err = service.JoinSession(code, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	assert.Empty(t, relay.broadcastsOfType(MessageTypeNumberCalled))

	mClock.Advance(game.CallInterval()).MustWait(ctx)
	calls := relay.broadcastsOfType(MessageTypeNumberCalled)
	require.Len(t, calls, 1)

	var data NumberCalledData
	require.NoError(t, json.Unmarshal(calls[0].Data, &data))
	assert.Equal(t, code, data.SessionID)
	assert.GreaterOrEqual(t, data.Number, 1)
	assert.LessOrEqual(t, data.Number, 75)
	assert.Equal(t, 1, data.CalledCount)

	mClock.Advance(game.CallInterval()).MustWait(ctx)
	assert.Len(t, relay.broadcastsOfType(MessageTypeNumberCalled), 2)
}

func TestMarkNumberThroughService(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	game := testGameSettings()
	service, relay := newTestService(t, mClock, game)

	code, err := service.CreateSession(10)
	require.NoError(t, err)
	board, _, err := service.JoinSession(code, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)
	mClock.Advance(game.CallInterval()).MustWait(ctx)

	calls := relay.broadcastsOfType(MessageTypeNumberCalled)
	require.Len(t, calls, 1)
	var data NumberCalledData
	require.NoError(t, json.Unmarshal(calls[0].Data, &data))

	marked, err := service.MarkNumber(code, "p1", data.Number)
	require.NoError(t, err)
	assert.Equal(t, board.Contains(data.Number), marked)

	// Uncalled numbers are rejected outright
	uncalled := data.Number%75 + 1
	_, err = service.MarkNumber(code, "p1", uncalled)
	assert.ErrorIs(t, err, bingo.ErrNumberNotCalled)
}

func TestClaimBingoInvalid(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	service, _ := newTestService(t, mClock, testGameSettings())

	code, err := service.CreateSession(10)
	require.NoError(t, err)
	_, _, err = service.JoinSession(code, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	err = service.ClaimBingo(code, "p1")
	assert.ErrorIs(t, err, bingo.ErrInvalidClaim)

	err = service.ClaimBingo("HXXXXX", "p1")
	assert.ErrorIs(t, err, bingo.ErrSessionNotFound)
}

func TestClaimBingoWinsAndPays(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	game := testGameSettings()
	service, relay := newTestService(t, mClock, game)

	code, err := service.CreateSession(20)
	require.NoError(t, err)
	board, _, err := service.JoinSession(code, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	// Run the full draw so every board number has been called
	for i := 0; i < bingo.MaxNumber; i++ {
		mClock.Advance(game.CallInterval()).MustWait(ctx)
	}
	require.Len(t, relay.broadcastsOfType(MessageTypeNumberCalled), bingo.MaxNumber)

	for _, n := range board.Numbers() {
		marked, err := service.MarkNumber(code, "p1", n)
		require.NoError(t, err)
		assert.True(t, marked)
	}

	require.NoError(t, service.ClaimBingo(code, "p1"))

	wins := relay.broadcastsOfType(MessageTypeGameWon)
	require.Len(t, wins, 1)
	var won GameWonData
	require.NoError(t, json.Unmarshal(wins[0].Data, &won))
	assert.Equal(t, code, won.SessionID)
	assert.Equal(t, "p1", won.Winner)
	assert.Equal(t, 20, won.Stake)

	state, err := service.GetState(code, "p1")
	require.NoError(t, err)
	assert.Equal(t, bingo.StatusFinished, state.Status)
	assert.Equal(t, "p1", state.Winner)

	// The round is over; further claims report the finished game
	err = service.ClaimBingo(code, "p1")
	assert.ErrorIs(t, err, bingo.ErrGameNotInProgress)
}

func TestLeaveSessionCleansUp(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	service, relay := newTestService(t, mClock, testGameSettings())

	code, err := service.CreateSession(10)
	require.NoError(t, err)
	_, _, err = service.JoinSession(code, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	service.LeaveSession("p1")

	_, err = service.GetState(code, "p1")
	assert.ErrorIs(t, err, bingo.ErrSessionNotFound)

	before := len(relay.broadcastsOfType(MessageTypeNumberCalled))
	// Unknown players are a no-op
	service.LeaveSession("ghost")
	assert.Equal(t, before, len(relay.broadcastsOfType(MessageTypeNumberCalled)))
}

func TestJoinNewSessionRetiresOrphanedCaller(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	game := testGameSettings()
	service, relay := newTestService(t, mClock, game)

	a, err := service.CreateSession(10)
	require.NoError(t, err)
	_, _, err = service.JoinSession(a, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	// Joining B evicts p1 from A; A empties out and is deleted, so its
	// caller must stop rather than keep drawing for an unreachable session
	b, err := service.CreateSession(10)
	require.NoError(t, err)
	_, _, err = service.JoinSession(b, "p1")
	require.NoError(t, err)
	trap.MustWait(ctx).Release(ctx)

	_, err = service.GetState(a, "p1")
	assert.ErrorIs(t, err, bingo.ErrSessionNotFound)

	mClock.Advance(game.CallInterval()).MustWait(ctx)
	calls := relay.broadcastsOfType(MessageTypeNumberCalled)
	require.Len(t, calls, 1)

	var data NumberCalledData
	require.NoError(t, json.Unmarshal(calls[0].Data, &data))
	assert.Equal(t, b, data.SessionID)
}

func TestGetStateIncludesPlayerBoardAndMarks(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("caller")
	defer trap.Close()

	game := testGameSettings()
	service, relay := newTestService(t, mClock, game)

	code, err := service.CreateSession(10)
	require.NoError(t, err)
	board, _, err := service.JoinSession(code, "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)

	for i := 0; i < 10; i++ {
		mClock.Advance(game.CallInterval()).MustWait(ctx)
	}
	calls := relay.broadcastsOfType(MessageTypeNumberCalled)
	require.Len(t, calls, 10)

	marked := []int{}
	for _, msg := range calls {
		var data NumberCalledData
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		ok, err := service.MarkNumber(code, "p1", data.Number)
		require.NoError(t, err)
		if ok {
			marked = append(marked, data.Number)
		}
	}
	slices.Sort(marked)

	state, err := service.GetState(code, "p1")
	require.NoError(t, err)
	assert.Equal(t, board.Numbers(), state.Board)
	assert.ElementsMatch(t, marked, state.Marked)
	assert.Len(t, state.CalledNumbers, 10)

	// Players outside the session get the snapshot without a board
	other, err := service.GetState(code, "stranger")
	require.NoError(t, err)
	assert.Empty(t, other.Board)
	assert.Empty(t, other.Marked)
}

func TestJoinBroadcastsState(t *testing.T) {
	t.Parallel()
	game := testGameSettings()
	game.MinPlayers = 3
	service, relay := newTestService(t, quartz.NewMock(t), game)

	code, err := service.CreateSession(10)
	require.NoError(t, err)
	_, _, err = service.JoinSession(code, "p1")
	require.NoError(t, err)
	_, _, err = service.JoinSession(code, "p2")
	require.NoError(t, err)

	states := relay.broadcastsOfType(MessageTypeState)
	require.Len(t, states, 2)

	var snap bingo.Snapshot
	require.NoError(t, json.Unmarshal(states[1].Data, &snap))
	assert.Equal(t, code, snap.SessionID)
	assert.Equal(t, 2, snap.PlayerCount)
}
