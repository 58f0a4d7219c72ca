package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/addisbingo/engine/cmd/addisbingo/shared"
	"github.com/addisbingo/engine/internal/bingo"
	"github.com/addisbingo/engine/internal/client"
	"github.com/addisbingo/engine/internal/server"
	"github.com/addisbingo/engine/internal/tui"
)

type ClientCmd struct {
	Server  string `kong:"default='http://localhost:8000',help='Server URL'"`
	Debug   bool   `kong:"help='Write debug logs to addisbingo-client.log'"`
	NoColor bool   `kong:"help='Disable colored output'"`
}

// refreshUI nudges Bubble Tea into a repaint after network events
type refreshUI struct{}

func (c *ClientCmd) Run() error {
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	// The TUI owns the terminal, so logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if c.Debug {
		f, err := os.Create("addisbingo-client.log")
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := shared.SetupWriterLogger(logOut, c.Debug)

	ws := client.NewClient(strings.TrimSpace(c.Server), logger)
	if err := ws.Connect(); err != nil {
		return err
	}
	defer func() { _ = ws.Disconnect() }()

	model := tui.NewTUIModel(logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	registerHandlers(ws, model, program)

	// Command loop translating TUI input into wire messages
	go commandLoop(ws, model)

	_, err := program.Run()
	return err
}

func registerHandlers(ws *client.Client, model *tui.TUIModel, program *tea.Program) {
	refresh := func() { program.Send(refreshUI{}) }

	ws.AddEventHandler(server.MessageTypeWelcome, func(msg *server.Message) {
		var data server.WelcomeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		ws.SetPlayerID(data.PlayerID)
		model.AddLogEntry(fmt.Sprintf("Connected as %s", data.PlayerID))
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeSessionCreated, func(msg *server.Message) {
		var data server.SessionCreatedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		model.SetSession(data.SessionID, data.Stake)
		model.AddLogEntry(fmt.Sprintf("Session %s created (stake %d), joining...", data.SessionID, data.Stake))
		_ = ws.JoinSession(data.SessionID)
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeSessionJoined, func(msg *server.Message) {
		var data server.SessionJoinedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		ws.SetSessionID(data.SessionID)

		var board bingo.Board
		if len(data.Board) == bingo.BoardSize {
			copy(board[:], data.Board)
			model.SetBoard(board)
		}
		model.ApplySnapshot(data.State)
		model.AddLogEntry(fmt.Sprintf("Joined session %s (%d players)", data.SessionID, data.State.PlayerCount))
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeSessionLeft, func(msg *server.Message) {
		ws.SetSessionID("")
		model.ClearSession()
		model.AddLogEntry("Left session")
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeGameStarted, func(msg *server.Message) {
		model.AddLogEntry("Round started, numbers incoming")
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeNumberCalled, func(msg *server.Message) {
		var data server.NumberCalledData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		model.RecordCall(data.Number)
		model.AddLogEntry(fmt.Sprintf("Number called: %s-%d (%d/%d)",
			callLetter(data.Number), data.Number, data.CalledCount, bingo.MaxNumber))
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeNumberMarked, func(msg *server.Message) {
		var data server.NumberMarkedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		if data.Accepted {
			model.RecordMark(data.Number)
			model.AddLogEntry(fmt.Sprintf("Marked %d", data.Number))
		} else {
			model.AddLogEntry(fmt.Sprintf("%d is not on your board", data.Number))
		}
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeGameWon, func(msg *server.Message) {
		var data server.GameWonData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		model.SetWinner(data.Winner)
		entry := fmt.Sprintf("BINGO! %s wins stake %d", data.Winner, data.Stake)
		if data.Bonus > 0 {
			entry += fmt.Sprintf(" + bonus %d", data.Bonus)
		}
		if data.Derash > 0 {
			entry += fmt.Sprintf(" (derash %d)", data.Derash)
		}
		model.AddLogEntry(entry)
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeState, func(msg *server.Message) {
		var data server.StateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		// A state reply to this player carries the board and marks, letting a
		// reconnect rebuild the display; broadcasts omit both.
		if len(data.Board) == bingo.BoardSize {
			var board bingo.Board
			copy(board[:], data.Board)
			model.SetBoard(board)
		}
		model.ApplySnapshot(data.Snapshot)
		for _, n := range data.Marked {
			model.RecordMark(n)
		}
		refresh()
	})

	ws.AddEventHandler(server.MessageTypeError, func(msg *server.Message) {
		var data server.ErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		model.AddLogEntry(fmt.Sprintf("Error: %s (%s)", data.Message, data.Code))
		refresh()
	})
}

func commandLoop(ws *client.Client, model *tui.TUIModel) {
	for {
		action, args, cont, _ := model.WaitForAction()
		if !cont || action == "quit" || action == "exit" {
			model.SendQuitSignal()
			return
		}

		var err error
		switch action {
		case "":
			// Enter with no text, nothing to do

		case "create":
			stake := 10
			if len(args) > 0 {
				stake, err = strconv.Atoi(args[0])
				if err != nil {
					model.AddLogEntry(fmt.Sprintf("Bad stake: %s", args[0]))
					continue
				}
			}
			err = ws.CreateSession(stake)

		case "join":
			if len(args) == 0 {
				model.AddLogEntry("Usage: join <code>")
				continue
			}
			err = ws.JoinSession(strings.ToUpper(args[0]))

		case "mark":
			if len(args) == 0 {
				model.AddLogEntry("Usage: mark <number>")
				continue
			}
			var n int
			n, err = strconv.Atoi(args[0])
			if err != nil {
				model.AddLogEntry(fmt.Sprintf("Bad number: %s", args[0]))
				continue
			}
			err = ws.MarkNumber(n)

		case "bingo":
			err = ws.ClaimBingo()

		case "state":
			err = ws.RequestState()

		case "leave":
			err = ws.LeaveSession()

		default:
			model.AddLogEntry(fmt.Sprintf("Unknown command: %s", action))
			continue
		}

		if err != nil {
			model.AddLogEntry(fmt.Sprintf("Send failed: %v", err))
		}
	}
}

func callLetter(number int) string {
	return bingo.ColumnLetters[(number-1)/(bingo.MaxNumber/bingo.Columns)]
}
