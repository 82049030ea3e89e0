package app

import (
	"codeinspector/internal/engine/syntax"
	"context"
	"fmt"
	"strings"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app == nil || s.app.Analyzer() == nil {
		status.Status = "down"
		status.Components["engines"] = "missing"
		return status
	}
	status.Components["engines"] = fmt.Sprintf("ok (%d rule types)", len(s.app.Analyzer().Registry.Types()))
	status.Components["syntax"] = "ok (" + strings.Join(syntax.Languages(), ", ") + ")"

	switch {
	case s.app.history != nil:
		if err := s.app.history.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	case s.app.Config != nil && s.app.Config.DB.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	default:
		status.Components["history"] = "disabled"
	}

	status.Components["results"] = fmt.Sprintf("%d files", len(s.app.Results()))
	return status
}
