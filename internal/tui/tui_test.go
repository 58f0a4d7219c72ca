package tui

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addisbingo/engine/internal/bingo"
	"github.com/addisbingo/engine/internal/randutil"
)

func TestTUITestMode(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}) // Quiet logger for tests

	t.Run("test mode captures log entries", func(t *testing.T) {
		tui := NewTUIModelWithOptions(logger, true)

		assert.True(t, tui.IsTestMode())
		assert.Empty(t, tui.GetCapturedLog())

		tui.AddLogEntry("Joined session H3F7KQ")
		tui.AddLogEntry("Number called: B-7")

		captured := tui.GetCapturedLog()
		require.Len(t, captured, 2)
		assert.Equal(t, "Joined session H3F7KQ", captured[0])
		assert.Equal(t, "Number called: B-7", captured[1])
	})

	t.Run("production mode does not capture logs", func(t *testing.T) {
		tui := NewTUIModel(logger) // Default is production mode

		assert.False(t, tui.IsTestMode())

		tui.AddLogEntry("Some log entry")

		// Should return nil in production mode
		assert.Nil(t, tui.GetCapturedLog())
	})

	t.Run("action injection works in test mode", func(t *testing.T) {
		tui := NewTUIModelWithOptions(logger, true)

		err := tui.InjectAction("bingo", nil)
		require.NoError(t, err)

		action, args, cont, err := tui.WaitForAction()
		require.NoError(t, err)

		assert.Equal(t, "bingo", action)
		assert.Empty(t, args)
		assert.True(t, cont)
	})

	t.Run("action injection fails in production mode", func(t *testing.T) {
		tui := NewTUIModel(logger) // Production mode

		err := tui.InjectAction("bingo", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "test mode")
	})

	t.Run("action injection with arguments", func(t *testing.T) {
		tui := NewTUIModelWithOptions(logger, true)

		err := tui.InjectAction("mark", []string{"42"})
		require.NoError(t, err)

		action, args, cont, err := tui.WaitForAction()
		require.NoError(t, err)

		assert.Equal(t, "mark", action)
		assert.Equal(t, []string{"42"}, args)
		assert.True(t, cont)
	})
}

func TestSessionDisplayState(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	tui := NewTUIModelWithOptions(logger, true)

	tui.SetSession("H3F7KQ", 20)
	tui.SetBoard(bingo.NewBoard(randutil.New(1)))
	tui.ApplySnapshot(bingo.Snapshot{
		SessionID:   "H3F7KQ",
		Status:      bingo.StatusStarted,
		PlayerCount: 3,
	})

	tui.RecordCall(7)
	tui.RecordCall(31)
	tui.RecordMark(31)

	assert.Equal(t, "H3F7KQ", tui.sessionID)
	assert.Equal(t, bingo.StatusStarted, tui.status)
	assert.Equal(t, 3, tui.playerCount)
	assert.Equal(t, []int{7, 31}, tui.called)
	assert.Equal(t, 31, tui.currentCall)
	assert.True(t, tui.marked[31])

	tui.SetWinner("p2")
	assert.Equal(t, bingo.StatusFinished, tui.status)

	tui.ClearSession()
	assert.Empty(t, tui.sessionID)
	assert.False(t, tui.hasBoard)
	assert.Empty(t, tui.called)
}
