package cli

import (
	coreapp "codeinspector/internal/core/app"
	"codeinspector/internal/data/history"
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, app *coreapp.App) error {
	m := initialModel(historyLoader(ctx, app))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{
			files:   update.Files,
			summary: update.Summary,
			changed: len(update.Changed),
			removed: len(update.Removed),
		})
	})
	defer app.SetUpdateHandler(nil)

	go func() {
		files := app.Results()
		p.Send(updateMsg{files: files, summary: coreapp.Summarize(files)})
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func historyLoader(ctx context.Context, app *coreapp.App) trendLoader {
	store := app.History()
	if store == nil {
		return nil
	}
	project := app.Project()
	return func(path string) (history.Trend, error) {
		return store.Trend(ctx, project, path)
	}
}
