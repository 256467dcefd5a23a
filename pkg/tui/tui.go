// Package tui provides a terminal user interface for retroexport
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"retroexport/pkg/export"
	"retroexport/pkg/project"
)

// CRT-phosphor color scheme (amber terminal aesthetic)
var (
	// Primary colors - amber and chrome
	amberGold  = lipgloss.Color("#FFB000")
	scanCyan   = lipgloss.Color("#00D7D7")
	chromeGray = lipgloss.Color("#B0B0B0")
	darkGray   = lipgloss.Color("#2A2A2A")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amberGold).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(chromeGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(amberGold).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(scanCyan).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(amberGold).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amberGold).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateExporting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Format      string
	Source      string
}

var menuItems = []MenuItem{
	{Title: "Export MED", Description: "Amiga MMD0 module for OctaMED", Format: "med", Source: "project"},
	{Title: "Export OKT", Description: "Oktalyzer FORM/OKTA container", Format: "okt", Source: "project"},
	{Title: "Export NANO", Description: "Compact stream for the embedded player", Format: "nano", Source: "project"},
	{Title: "Export MIDI", Description: "Standard MIDI File of the play order", Format: "mid", Source: "project"},
	{Title: "Export GYM", Description: "Genesis register log from a capture trace", Format: "gym", Source: "trace"},
	{Title: "Exit", Description: "Exit the application", Format: "", Source: ""},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	target       MenuItem
	err          error
	width        int
	height       int
}

// exportDoneMsg signals export completion
type exportDoneMsg struct {
	outputFile string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	// Initialize file picker; both songs and traces live in project JSON
	fp := filepicker.New()
	fp.AllowedTypes = []string{".json"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(amberGold)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateExporting
			return m, tea.Batch(m.spinner.Tick, m.performExport())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case exportDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.target = menuItems[m.menuIndex]
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performExport() tea.Cmd {
	return func() tea.Msg {
		if m.target.Format == string(export.FormatGYM) {
			trace, err := project.LoadTrace(m.selectedFile)
			if err != nil {
				return exportDoneMsg{err: err}
			}
			outputFile := export.OutputName(m.selectedFile, ".gym")
			if err := export.WriteGYMFile(trace, export.DefaultSampleRate, outputFile); err != nil {
				return exportDoneMsg{err: err}
			}
			return exportDoneMsg{outputFile: outputFile}
		}

		e, err := export.ByName(m.target.Format)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		song, err := project.Load(m.selectedFile)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		if !e.CanExport(song) {
			return exportDoneMsg{err: fmt.Errorf("song cannot be exported as %s", e.Name())}
		}

		outputFile := export.OutputName(m.selectedFile, e.Extension())
		if err := export.WriteFile(e, song, outputFile); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{outputFile: outputFile}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	header := asciiLogo()
	s.WriteString(header)
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateExporting:
		s.WriteString(m.viewExporting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT TARGET FORMAT "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(scanCyan).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(m.target.Source))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewExporting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" EXPORTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Exporting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.target.Source, m.target.Format)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Export failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Export complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   ____  _____ _____ ____   ___  _____ __  __ ____   ___  ____ _____
  |  _ \| ____|_   _|  _ \ / _ \| ____|\ \/ /|  _ \ / _ \|  _ \_   _|
  | |_) |  _|   | | | |_) | | | |  _|   \  / | |_) | | | | |_) || |
  |  _ <| |___  | | |  _ <| |_| | |___  /  \ |  __/| |_| |  _ < | |
  |_| \_\_____| |_| |_| \_\\___/|_____|/_/\_\|_|    \___/|_| \_\|_|
`
	return lipgloss.NewStyle().Foreground(amberGold).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
