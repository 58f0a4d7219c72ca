package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/addisbingo/engine/internal/bingo"
)

// TUIModel represents the Bubble Tea model for the bingo client
type TUIModel struct {
	logger *log.Logger

	// UI components
	logViewport  viewport.Model
	commandInput textinput.Model

	// State
	gameLog      []string
	actionResult chan ActionResult
	quitSignal   chan bool
	quitting     bool
	focusedPane  int // 0 = log, 1 = input

	// Display state (event-driven, everything comes off the wire)
	sessionID   string
	stake       int
	status      bingo.Status
	board       bingo.Board
	hasBoard    bool
	marked      map[int]bool
	called      []int
	currentCall int
	playerCount int
	winner      string

	// Dimensions
	width       int
	height      int
	initialized bool // Track if viewport has been properly sized

	// Test mode
	testMode    bool
	capturedLog []string // For test assertions
}

// ActionResult represents the result of a user action
type ActionResult struct {
	Action   string
	Args     []string
	Continue bool
	Error    error
}

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

// NewTUIModel creates a new TUI model for network mode
func NewTUIModel(logger *log.Logger) *TUIModel {
	return NewTUIModelWithOptions(logger, false)
}

// NewTUIModelWithOptions creates a new TUI model with test mode option
func NewTUIModelWithOptions(logger *log.Logger, testMode bool) *TUIModel {
	// Create viewport for game log with minimal initial size
	// Will be properly sized when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a command (create 10, join H3F7KQ, mark 42, bingo, leave)"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &TUIModel{
		logger:       logger.WithPrefix("tui"),
		logViewport:  vp,
		commandInput: ti,
		gameLog:      []string{},
		actionResult: make(chan ActionResult, 1),
		quitSignal:   make(chan bool, 1),
		focusedPane:  1, // Start with input focused
		marked:       make(map[int]bool),
		testMode:     testMode,
		capturedLog:  []string{},
	}
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForQuit())
}

// listenForQuit returns a command that listens for quit signals
func (m *TUIModel) listenForQuit() tea.Cmd {
	return func() tea.Msg {
		<-m.quitSignal
		return QuitMsg{}
	}
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.WindowSizeMsg:
		m.logger.Debug("Updating dimensions", "width", msg.Width, "height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.actionResult <- ActionResult{Action: "quit", Continue: false}
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			// Switch focus between log and input
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.commandInput.Focus()
			} else {
				m.focusedPane = 0
				m.commandInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 { // Only process enter in input pane
				action := strings.TrimSpace(m.commandInput.Value())
				m.processAction(action)
				m.commandInput.SetValue("")
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	// Update components
	var cmd tea.Cmd

	// Only update input if it's focused
	if m.focusedPane == 1 {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Always update viewport (for scrolling)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Command pane (bottom, full width)
	commandContent := m.renderCommandPane()
	commandHeight := lipgloss.Height(commandContent)
	calculatedCommandWidth := m.width - 2
	calculatedCommandHeight := commandHeight - 2

	if calculatedCommandWidth < 1 {
		calculatedCommandWidth = 1
	}
	if calculatedCommandHeight < 1 {
		calculatedCommandHeight = 1
	}

	commandStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(calculatedCommandWidth).
		Height(calculatedCommandHeight)
	commandPane := commandStyle.Render(commandContent)

	// Board pane (right side of log pane, same height as log pane)
	boardContent := m.renderBoardPane()
	boardWidth := lipgloss.Width(boardContent)

	calculatedBoardWidth := 25
	if boardWidth > calculatedBoardWidth {
		calculatedBoardWidth = boardWidth
	}

	calculatedBoardHeight := m.height - commandHeight - 4

	if calculatedBoardWidth < 1 {
		calculatedBoardWidth = 1
	}
	if calculatedBoardHeight < 1 {
		calculatedBoardHeight = 1
	}

	boardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedBoardWidth).
		Height(calculatedBoardHeight)

	boardPane := boardStyle.Render(boardContent)

	// Log pane (top, fills height minus command pane)
	logContent := m.renderLogPane()
	m.logViewport.SetContent(logContent)

	calculatedLogWidth := m.width - calculatedBoardWidth - 4
	calculatedLogHeight := m.height - commandHeight - 4

	if calculatedLogWidth < 1 {
		calculatedLogWidth = 1
	}
	if calculatedLogHeight < 1 {
		calculatedLogHeight = 1
	}

	m.logViewport.Width = calculatedLogWidth
	m.logViewport.Height = calculatedLogHeight

	// On first proper sizing, reset to top to avoid starting scrolled down
	if !m.initialized && calculatedLogWidth > 1 && calculatedLogHeight > 1 {
		m.logViewport.GotoTop()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(calculatedLogWidth).
		Height(calculatedLogHeight)

	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, boardPane)

	return lipgloss.JoinVertical(lipgloss.Top, topRow, commandPane)
}

// renderLogPane renders the game log pane content
func (m *TUIModel) renderLogPane() string {
	return strings.Join(m.gameLog, "\n")
}

// renderBoardPane renders the board grid and session summary
func (m *TUIModel) renderBoardPane() string {
	var content strings.Builder

	if m.sessionID != "" {
		content.WriteString(HeaderStyle.Render(fmt.Sprintf(" %s ", m.sessionID)))
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render(fmt.Sprintf("stake %d | players %d | %s", m.stake, m.playerCount, m.status)))
		content.WriteString("\n\n")
	}

	if m.currentCall != 0 {
		letter := bingo.ColumnLetters[(m.currentCall-1)/15]
		content.WriteString(CallStyle.Render(fmt.Sprintf("Call: %s-%d", letter, m.currentCall)))
		content.WriteString(InfoStyle.Render(fmt.Sprintf("  (%d/%d)", len(m.called), bingo.MaxNumber)))
		content.WriteString("\n\n")
	}

	if m.hasBoard {
		content.WriteString(m.renderBoardGrid())
		content.WriteString("\n")
	}

	if m.winner != "" {
		content.WriteString(SuccessStyle.Render(fmt.Sprintf("Winner: %s", m.winner)))
		content.WriteString("\n")
	}

	return content.String()
}

// renderBoardGrid draws the 5x5 card with column letters on top. Marked
// cells are highlighted, called-but-unmarked cells tinted.
func (m *TUIModel) renderBoardGrid() string {
	var content strings.Builder

	for _, letter := range bingo.ColumnLetters {
		content.WriteString(ColumnHeaderStyle.Render(fmt.Sprintf(" %2s ", letter)))
	}
	content.WriteString("\n")

	calledSet := make(map[int]bool, len(m.called))
	for _, n := range m.called {
		calledSet[n] = true
	}

	for row := 0; row < bingo.Rows; row++ {
		for col := 0; col < bingo.Columns; col++ {
			n := m.board.Cell(row, col)
			cell := fmt.Sprintf(" %2d ", n)
			switch {
			case m.marked[n]:
				content.WriteString(MarkedCellStyle.Render(cell))
			case calledSet[n]:
				content.WriteString(CalledCellStyle.Render(cell))
			default:
				content.WriteString(CellStyle.Render(cell))
			}
		}
		content.WriteString("\n")
	}

	return content.String()
}

// renderCommandPane renders the command input pane
func (m *TUIModel) renderCommandPane() string {
	var content strings.Builder

	switch {
	case m.sessionID == "":
		content.WriteString(CallStyle.Render("No session. Create or join one."))
		content.WriteString("\n")
	case m.status == bingo.StatusWaiting:
		content.WriteString(CallStyle.Render("Waiting for the round to start..."))
		content.WriteString("\n")
	case m.status == bingo.StatusFinished:
		content.WriteString(CallStyle.Render("Round over."))
		content.WriteString("\n")
	}

	if m.sessionID == "" {
		m.commandInput.Placeholder = "Enter a command (create 10, join H3F7KQ)"
	} else {
		m.commandInput.Placeholder = "Enter a command (mark 42, bingo, state, leave)"
	}

	content.WriteString(m.commandInput.View())
	content.WriteString("\n")

	// Show help text
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render(
			"Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render(
			"Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}

	return content.String()
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	// In test mode, also capture the log entry
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return // Skip UI updates in test mode
	}

	// Update content and auto-scroll to bottom
	content := strings.Join(m.gameLog, "\n")
	m.logViewport.SetContent(content)

	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// ClearLog clears the game log
func (m *TUIModel) ClearLog() {
	m.gameLog = []string{}
	m.logViewport.SetContent("")
}

// SetSession records the session the player sits in and resets round state
func (m *TUIModel) SetSession(sessionID string, stake int) {
	m.sessionID = sessionID
	m.stake = stake
	m.marked = make(map[int]bool)
	m.called = nil
	m.currentCall = 0
	m.winner = ""
}

// ClearSession drops all session display state
func (m *TUIModel) ClearSession() {
	m.sessionID = ""
	m.stake = 0
	m.status = ""
	m.hasBoard = false
	m.marked = make(map[int]bool)
	m.called = nil
	m.currentCall = 0
	m.playerCount = 0
	m.winner = ""
}

// SetBoard installs the player's card
func (m *TUIModel) SetBoard(board bingo.Board) {
	m.board = board
	m.hasBoard = true
}

// ApplySnapshot updates the display from a session snapshot
func (m *TUIModel) ApplySnapshot(snap bingo.Snapshot) {
	m.sessionID = snap.SessionID
	m.status = snap.Status
	m.playerCount = snap.PlayerCount
	m.called = snap.CalledNumbers
	m.currentCall = snap.CurrentCall
	m.winner = snap.Winner
}

// RecordCall appends a called number to the display
func (m *TUIModel) RecordCall(number int) {
	m.called = append(m.called, number)
	m.currentCall = number
}

// RecordMark highlights a number the server accepted as marked
func (m *TUIModel) RecordMark(number int) {
	m.marked[number] = true
}

// SetWinner records the round result
func (m *TUIModel) SetWinner(winner string) {
	m.winner = winner
	m.status = bingo.StatusFinished
}

// processAction processes a user command
func (m *TUIModel) processAction(input string) {
	parts := strings.Fields(strings.ToLower(input))

	var action string
	var args []string

	if len(parts) == 0 {
		// Empty input (Enter pressed with no text)
		action = ""
		args = []string{}
	} else {
		action = parts[0]
		args = parts[1:]
	}

	// Send action result through channel
	m.actionResult <- ActionResult{
		Action:   action,
		Args:     args,
		Continue: true, // Let the command handler decide whether to continue
	}
}

// WaitForAction waits for user input (for use by the client command loop)
func (m *TUIModel) WaitForAction() (string, []string, bool, error) {
	result := <-m.actionResult
	return result.Action, result.Args, result.Continue, result.Error
}

// SendQuitSignal signals the TUI to quit gracefully
func (m *TUIModel) SendQuitSignal() {
	select {
	case m.quitSignal <- true:
	default:
		// Channel is full, quit signal already sent
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	// Return a copy to prevent modification
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// InjectAction programmatically injects an action (test mode only)
func (m *TUIModel) InjectAction(action string, args []string) error {
	if !m.testMode {
		return fmt.Errorf("action injection only available in test mode")
	}

	select {
	case m.actionResult <- ActionResult{
		Action:   action,
		Args:     args,
		Continue: true,
	}:
		return nil
	default:
		return fmt.Errorf("action channel full")
	}
}

// IsTestMode returns whether the TUI is in test mode
func (m *TUIModel) IsTestMode() bool {
	return m.testMode
}
