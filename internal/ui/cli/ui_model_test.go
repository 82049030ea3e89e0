package cli

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/engine/security"
	"codeinspector/internal/engine/smells"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func sampleFiles() []ports.FileReport {
	return []ports.FileReport{
		{
			Path:     "src/Clean.java",
			Language: "java",
			Scores:   ports.FileScores{Maintainability: 90, SmellScore: 95, RiskScore: 100},
		},
		{
			Path:     "src/Dao.java",
			Language: "java",
			Scores:   ports.FileScores{Maintainability: 60, SmellScore: 99, RiskScore: 50, Critical: 1, Low: 1},
			Security: &security.Result{Vulnerabilities: map[string][]security.Issue{
				rules.TypeSQLInjection: {{Type: rules.TypeSQLInjection, Severity: rules.Critical, Line: 3, SeverityScore: 92.5, Description: "SQL Injection vulnerability detected"}},
				rules.TypeNullCheck:    {{Type: rules.TypeNullCheck, Severity: rules.Low, Line: 7, SeverityScore: 31, Description: "Missing null check"}},
			}},
			Smells: &smells.Result{Scores: map[string]float64{"God Class": 100, "Long Method": 70, "Duplicate Code": 85}},
		},
	}
}

func press(t *testing.T, m model, key tea.KeyMsg) model {
	t.Helper()
	updated, _ := m.Update(key)
	state, ok := updated.(model)
	if !ok {
		t.Fatalf("expected model type, got %T", updated)
	}
	return state
}

// newSizedModel gives the list a real viewport so View renders every pane.
func newSizedModel(loader trendLoader) model {
	updated, _ := initialModel(loader).Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	return updated.(model)
}

func runes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_UpdateSortsRiskiestFirst(t *testing.T) {
	m := newSizedModel(nil)
	files := sampleFiles()
	updated, _ := m.Update(updateMsg{files: files, summary: ports.ReportSummary{Files: 2, Critical: 1, Low: 1}, changed: 1})
	state := updated.(model)

	if got := len(state.fileList.Items()); got != 2 {
		t.Fatalf("expected 2 file items, got %d", got)
	}
	selected, ok := state.selectedFile()
	if !ok || selected.Path != "src/Dao.java" {
		t.Fatalf("expected riskiest file selected first, got %+v", selected.Path)
	}

	view := state.View()
	for _, want := range []string{"Code Inspector", "1 critical", "Top issues:", "line 3 SQL_INJECTION", "Long Method 70"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q", want)
		}
	}
}

func TestModel_SortCycleKeepsSelection(t *testing.T) {
	m := newSizedModel(nil)
	updated, _ := m.Update(updateMsg{files: sampleFiles()})
	state := updated.(model)

	state = press(t, state, runes('s'))
	if state.sort != sortBySmell {
		t.Fatalf("expected smell sort, got %s", state.sort)
	}
	if selected, _ := state.selectedFile(); selected.Path != "src/Dao.java" {
		t.Fatalf("expected selection to follow the file, got %s", selected.Path)
	}
	if first := state.files[0].Path; first != "src/Clean.java" {
		t.Fatalf("expected lowest smell score first, got %s", first)
	}

	state = press(t, state, runes('s'))
	state = press(t, state, runes('s'))
	state = press(t, state, runes('s'))
	if state.sort != sortByRisk {
		t.Fatalf("expected sort modes to wrap around, got %s", state.sort)
	}
}

func TestModel_TrendOverlayUsesLoader(t *testing.T) {
	var requested []string
	loader := func(path string) (history.Trend, error) {
		requested = append(requested, path)
		if path == "src/Clean.java" {
			return history.Trend{}, errors.New("no snapshots")
		}
		return history.Trend{Path: path, RunCount: 2, DeltaMaintainability: -4.5, DeltaIssues: 1}, nil
	}

	m := newSizedModel(loader)
	updated, _ := m.Update(updateMsg{files: sampleFiles()})
	state := press(t, updated.(model), runes('t'))

	if !state.showTrend || state.trend == nil {
		t.Fatal("expected trend overlay with a loaded trend")
	}
	if !strings.Contains(state.View(), "Maintainability: -4.50") {
		t.Fatal("expected trend deltas in view")
	}

	state = press(t, state, tea.KeyMsg{Type: tea.KeyDown})
	if state.trendErr == "" || state.trendPath != "src/Clean.java" {
		t.Fatalf("expected trend reload for the new selection, got path=%q err=%q", state.trendPath, state.trendErr)
	}
	if len(requested) != 2 {
		t.Fatalf("expected two loader calls, got %v", requested)
	}

	state = press(t, state, tea.KeyMsg{Type: tea.KeyEsc})
	if state.showTrend || state.showDetail {
		t.Fatal("expected esc to close both panes")
	}
}

func TestModel_TrendOverlayWithoutHistory(t *testing.T) {
	m := newSizedModel(nil)
	updated, _ := m.Update(updateMsg{files: sampleFiles()})
	state := press(t, updated.(model), runes('t'))
	if !strings.Contains(state.View(), "Trend overlay unavailable") {
		t.Fatal("expected unavailable notice without a history store")
	}
}

func TestSelectedSourceTargetPointsAtTopIssue(t *testing.T) {
	m := newSizedModel(nil)
	updated, _ := m.Update(updateMsg{files: sampleFiles()})
	target, ok := selectedSourceTarget(updated.(model))
	if !ok || target.file != "src/Dao.java" || target.line != 3 {
		t.Fatalf("unexpected target %+v (ok=%v)", target, ok)
	}

	if _, ok := selectedSourceTarget(initialModel(nil)); ok {
		t.Fatal("expected no target for an empty list")
	}
}

func TestTopIssuesOrdersBySeverity(t *testing.T) {
	issues := topIssues(sampleFiles()[1], 5)
	if len(issues) != 2 || issues[0].Severity != rules.Critical || issues[1].Severity != rules.Low {
		t.Fatalf("unexpected order %+v", issues)
	}
	if got := topIssues(sampleFiles()[0], 5); got != nil {
		t.Fatalf("expected no issues without a security result, got %+v", got)
	}
}
