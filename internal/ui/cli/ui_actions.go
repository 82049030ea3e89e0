package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	// While the filter prompt is open every key belongs to it.
	if m.fileList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		m.showDetail = !m.showDetail
		return m, nil
	case "esc":
		if m.fileList.FilterState() == list.FilterApplied {
			m.fileList.ResetFilter()
			return m, nil
		}
		m.showDetail = false
		m.showTrend = false
		return m, nil
	case "s":
		m.sort = (m.sort + 1) % (sortByPath + 1)
		m = m.refreshItems()
		return m, nil
	case "t":
		m.showTrend = !m.showTrend
		if m.showTrend {
			m = m.refreshTrend()
		}
		return m, nil
	case "o":
		target, ok := selectedSourceTarget(m)
		if !ok {
			m.sourceJumpStatus = statusStyle.Render("No file selected.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	before := m.fileList.Index()
	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	if m.showTrend && m.fileList.Index() != before {
		m = m.refreshTrend()
	}
	return m, cmd
}

type sourceTarget struct {
	file string
	line int
}

// selectedSourceTarget points at the selected file's most severe issue, or
// its first line when it has none.
func selectedSourceTarget(m model) (sourceTarget, bool) {
	selected, ok := m.selectedFile()
	if !ok || selected.Path == "" {
		return sourceTarget{}, false
	}
	target := sourceTarget{file: selected.Path, line: 1}
	if issues := topIssues(selected, 1); len(issues) > 0 && issues[0].Line > 0 {
		target.line = issues[0].Line
	}
	return target, true
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	if strings.Contains(editor, "vim") || strings.Contains(editor, "nvim") || strings.HasSuffix(editor, "vi") ||
		strings.Contains(editor, "nano") || strings.Contains(editor, "emacs") {
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	}
	cmd := exec.Command(editor, args...)
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
