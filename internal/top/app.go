// Package top is the interactive largest-classes view: scan results in
// a scrollable table, sortable by shallow bytes or instance count.
package top

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sudssf/jvm-hprof-go/internal/scan"
	"github.com/sudssf/jvm-hprof-go/utils"
)

type sortMode int

const (
	sortByBytes sortMode = iota
	sortByCount
)

type row struct {
	name  string
	count uint64
	bytes uint64
}

type Model struct {
	table  table.Model
	rows   []row
	sortBy sortMode
	width  int
}

// Run scans the tables into a table UI and blocks until the user quits.
func Run(tables *scan.Tables) error {
	m := newModel(tables)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func newModel(tables *scan.Tables) *Model {
	rows := make([]row, 0, len(tables.Instances)+len(tables.PrimArrays))
	for classID, stat := range tables.Instances {
		rows = append(rows, row{
			name:  tables.ClassName(classID),
			count: stat.Count,
			bytes: stat.Bytes,
		})
	}
	for elemType, stat := range tables.PrimArrays {
		rows = append(rows, row{
			name:  fmt.Sprintf("%s[]", elemType),
			count: stat.Count,
			bytes: stat.Bytes,
		})
	}

	columns := []table.Column{
		{Title: "Class", Width: 48},
		{Title: "Objects", Width: 12},
		{Title: "Shallow", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(utils.BorderColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(utils.InfoColor).
		Bold(false)
	t.SetStyles(styles)

	m := &Model{table: t, rows: rows, sortBy: sortByBytes}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	sort.Slice(m.rows, func(i, j int) bool {
		if m.sortBy == sortByCount {
			return m.rows[i].count > m.rows[j].count
		}
		return m.rows[i].bytes > m.rows[j].bytes
	})

	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = table.Row{
			r.name,
			fmt.Sprintf("%d", r.count),
			utils.MemorySize(r.bytes).String(),
		}
	}
	m.table.SetRows(rows)
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(msg.Height - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.sortBy == sortByBytes {
				m.sortBy = sortByCount
			} else {
				m.sortBy = sortByBytes
			}
			m.refresh()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	title := utils.TitleStyle.Render("Largest classes")
	sortLabel := "shallow bytes"
	if m.sortBy == sortByCount {
		sortLabel = "instance count"
	}
	help := utils.MutedStyle.Render(fmt.Sprintf("sorted by %s · s: toggle sort · q: quit", sortLabel))
	return lipgloss.JoinVertical(lipgloss.Left, title, m.table.View(), help)
}
