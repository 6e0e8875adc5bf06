// Copyright (c) 2024 Neomantra Corp
//
// Messages page: a table of every message name loaded into the Registry,
// with a detail pane rendering the selected message's augmented field
// tree. Grounded on the teacher's publishers.go (bubbles/table.Model
// wrapped in a tea.Model, populated from a backing data source on Init),
// adapted from a remote HTTP fetch to a synchronous local Registry read
// since schema loading happens once at startup, not per keystroke.

package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tera "github.com/neomantra/tera-go"
)

// MessagesPageModel lists every loaded message and shows the selected
// one's field layout.
type MessagesPageModel struct {
	registry *tera.Registry
	names    []string

	tbl    table.Model
	width  int
	height int
}

func NewMessagesPage(registry *tera.Registry) MessagesPageModel {
	names := registry.MessageNames()
	sort.Strings(names)

	tbl := table.New(table.WithColumns([]table.Column{
		{Title: "Name", Width: 24},
		{Title: "Opcode", Width: 8},
		{Title: "Versions", Width: 20},
	}), table.WithStyles(teraTableStyles),
		table.WithFocused(true))

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		opcodeStr := "-"
		if code, ok := registry.OpcodeForName(name); ok {
			opcodeStr = strconv.Itoa(code)
		}
		versions := registry.Versions(name)
		verStrs := make([]string, 0, len(versions))
		for _, v := range versions {
			verStrs = append(verStrs, strconv.Itoa(v))
		}
		rows = append(rows, table.Row{name, opcodeStr, strings.Join(verStrs, ",")})
	}
	tbl.SetRows(rows)

	return MessagesPageModel{
		registry: registry,
		names:    names,
		tbl:      tbl,
		width:    20,
		height:   10,
	}
}

func (m MessagesPageModel) Init() tea.Cmd { return nil }

func (m MessagesPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tbl.SetWidth(msg.Width/2 - 2)
		m.tbl.SetHeight(msg.Height - 4)
	default:
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m MessagesPageModel) View() string {
	left := teraBorderStyle.Render(m.tbl.View())
	right := teraBorderStyle.Width(m.width - lipgloss.Width(left) - 2).Render(m.detailView())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m MessagesPageModel) detailView() string {
	cursor := m.tbl.Cursor()
	if cursor < 0 || cursor >= len(m.names) {
		return "no message selected"
	}
	name := m.names[cursor]
	version, ok := m.registry.MaxVersion(name)
	if !ok {
		return fmt.Sprintf("%s: no schema loaded", name)
	}
	schema, err := m.registry.Resolve(name, strconv.Itoa(version))
	if err != nil {
		return fmt.Sprintf("%s: %s", name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s v%d\n\n", name, version)
	renderFields(&b, schema.Fields, 0)
	return b.String()
}

var metaFieldStyle = lipgloss.NewStyle().Foreground(colorAlert)

func renderFields(b *strings.Builder, fields []*tera.Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		if f.Kind.IsMeta() {
			fmt.Fprintf(b, "%s%s\n", indent, metaFieldStyle.Render(fmt.Sprintf("%s: %s (-> %s)", f.Name, f.Kind, f.Path)))
			continue
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, f.Name, f.Kind)
		if len(f.Fields) > 0 {
			renderFields(b, f.Fields, depth+1)
		}
	}
}
