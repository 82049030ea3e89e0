package cli

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)
)

type fileItem struct {
	report ports.FileReport
}

func (i fileItem) Title() string { return i.report.Path }
func (i fileItem) Description() string {
	s := i.report.Scores
	return fmt.Sprintf("risk %.0f | smell %.1f | MI %.1f | issues %d", s.RiskScore, s.SmellScore, s.Maintainability, s.Issues())
}
func (i fileItem) FilterValue() string { return i.report.Path }

type sortMode int

const (
	sortByRisk sortMode = iota
	sortBySmell
	sortByMaintainability
	sortByPath
)

func (s sortMode) String() string {
	switch s {
	case sortBySmell:
		return "smell"
	case sortByMaintainability:
		return "maintainability"
	case sortByPath:
		return "path"
	default:
		return "risk"
	}
}

// trendLoader fetches one file's history. Nil when history is disabled.
type trendLoader func(path string) (history.Trend, error)

type model struct {
	fileList   list.Model
	files      []ports.FileReport
	summary    ports.ReportSummary
	sort       sortMode
	showDetail bool
	lastUpdate time.Time
	changed    int
	removed    int

	loadTrend trendLoader
	showTrend bool
	trend     *history.Trend
	trendPath string
	trendErr  string

	sourceJumpStatus string
}

type updateMsg struct {
	files   []ports.FileReport
	summary ports.ReportSummary
	changed int
	removed int
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 14
		if height < 5 {
			height = 5
		}
		m.fileList.SetSize(width, height)
	case updateMsg:
		m.files = msg.files
		m.summary = msg.summary
		m.changed = msg.changed
		m.removed = msg.removed
		m.lastUpdate = time.Now()
		m = m.refreshItems()
		if m.showTrend {
			m = m.refreshTrend()
		}
		return m, nil
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Open failed: %v", msg.err))
		} else {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Opened %s", msg.target))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

// refreshItems re-sorts the files and keeps the cursor on the same path
// when it is still present.
func (m model) refreshItems() model {
	selected, hasSelection := m.selectedFile()

	sortFiles(m.files, m.sort)
	items := make([]list.Item, 0, len(m.files))
	for _, f := range m.files {
		items = append(items, fileItem{report: f})
	}
	m.fileList.SetItems(items)

	if hasSelection {
		for i, f := range m.files {
			if f.Path == selected.Path {
				m.fileList.Select(i)
				break
			}
		}
	}
	return m
}

func (m model) selectedFile() (ports.FileReport, bool) {
	item, ok := m.fileList.SelectedItem().(fileItem)
	if !ok {
		return ports.FileReport{}, false
	}
	return item.report, true
}

func (m model) refreshTrend() model {
	m.trend = nil
	m.trendErr = ""
	m.trendPath = ""
	if m.loadTrend == nil {
		return m
	}
	selected, ok := m.selectedFile()
	if !ok {
		return m
	}
	m.trendPath = selected.Path
	trend, err := m.loadTrend(selected.Path)
	if err != nil {
		m.trendErr = err.Error()
		return m
	}
	m.trend = &trend
	return m
}

// sortFiles orders the worst files first for the score modes.
func sortFiles(files []ports.FileReport, mode sortMode) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].Scores, files[j].Scores
		switch mode {
		case sortBySmell:
			if a.SmellScore != b.SmellScore {
				return a.SmellScore < b.SmellScore
			}
		case sortByMaintainability:
			if a.Maintainability != b.Maintainability {
				return a.Maintainability < b.Maintainability
			}
		case sortByRisk:
			if a.RiskScore != b.RiskScore {
				return a.RiskScore < b.RiskScore
			}
		}
		return files[i].Path < files[j].Path
	})
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d files | sorted by %s",
		m.lastUpdate.Format("15:04:05"), len(m.files), m.sort))
	if m.changed > 0 || m.removed > 0 {
		status += statusStyle.Render(fmt.Sprintf(" | %d changed, %d removed", m.changed, m.removed))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Code Inspector"), status, renderSummary(m.summary))
	body := m.fileList.View()
	if m.showDetail {
		body += "\n" + renderDetail(m)
	}
	if m.showTrend {
		body += "\n" + renderTrendOverlay(m)
	}
	if m.sourceJumpStatus != "" {
		body += "\n\n" + m.sourceJumpStatus
	}

	return docStyle.Render(header + "\n" + renderHelp(m) + "\n\n" + body)
}

func initialModel(loader trendLoader) model {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Analysed Files"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(true)

	return model{
		fileList:   fileList,
		sort:       sortByRisk,
		showDetail: true,
		loadTrend:  loader,
		lastUpdate: time.Now(),
	}
}
