// Copyright (c) 2024 Neomantra Corp
//
// TUI entry point. Grounded on the teacher's internal/tui/main.go
// AppModel (header/footer chrome, key.Binding-driven quit), trimmed from
// a multi-tab downloader to this codec's single Messages page since
// there is only one thing to browse: the loaded Registry.

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tera "github.com/neomantra/tera-go"
)

// Run launches the TUI against reg until the user quits.
func Run(reg *tera.Registry) error {
	model := NewAppModel(reg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type AppModel struct {
	registry *tera.Registry
	page     tea.Model

	width       int
	height      int
	help        help.Model
	keyMap      AppKeyMap
	headerStyle lipgloss.Style
}

func NewAppModel(reg *tera.Registry) AppModel {
	return AppModel{
		registry: reg,
		page:     NewMessagesPage(reg),
		width:    20,
		height:   10,
		help:     help.New(),
		keyMap:   DefaultAppKeyMap(),
		headerStyle: lipgloss.NewStyle().
			Foreground(colorAmber).
			Background(colorInk),
	}
}

type AppKeyMap struct {
	Quit key.Binding
}

func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (m AppKeyMap) ShortHelp() []key.Binding { return []key.Binding{m.Quit} }
func (m AppKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Quit}}
}

func (m AppModel) Init() tea.Cmd { return m.page.Init() }

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
	}
	page, cmd := m.page.Update(msg)
	m.page = page
	return m, cmd
}

func (m AppModel) View() string {
	header := m.headerStyle.Render(" tera-codec ")
	restOfLine := maxInt(0, m.width-lipgloss.Width(header))
	header += m.headerStyle.Render(strings.Repeat(" ", restOfLine))
	return header + "\n" + m.page.View() + "\n" + m.help.View(m.keyMap)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
