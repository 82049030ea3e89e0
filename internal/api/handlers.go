package api

import (
	domainerrors "codeinspector/internal/core/errors"
	"codeinspector/internal/core/ports"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

type codeRequest struct {
	Code string `json:"code"`
}

type compareRequest struct {
	Code1 string `json:"code1"`
	Code2 string `json:"code2"`
}

type securityRequest struct {
	SourceCode string `json:"sourceCode"`
}

type syntaxRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

type analyzeRequest struct {
	Path    string `json:"path,omitempty"`
	Code    string `json:"code"`
	Engines string `json:"engines,omitempty"`
}

type errorResponse struct {
	Code  domainerrors.ErrorCode `json:"code"`
	Error string                 `json:"error"`
}

const defaultSyntaxLanguage = "java"

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.service.AnalyzeMetrics(r.Context(), req.Code)
	respond(w, res, err)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.service.AnalyzeStructure(r.Context(), req.Code)
	respond(w, res, err)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.service.Compare(r.Context(), req.Code1, req.Code2)
	respond(w, res, err)
}

// handleSmells takes the source as the raw request body.
func (s *Server) handleSmells(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, bodyError(err))
		return
	}
	res, err := s.service.AnalyzeSmells(r.Context(), string(body))
	respond(w, res, err)
}

func (s *Server) handleSecurity(w http.ResponseWriter, r *http.Request) {
	var req securityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.service.AnalyzeSecurity(r.Context(), req.SourceCode)
	respond(w, res, err)
}

func (s *Server) handleSyntax(w http.ResponseWriter, r *http.Request) {
	var req syntaxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = defaultSyntaxLanguage
	}
	res, err := s.service.ParseSyntax(r.Context(), language, req.Code)
	respond(w, res, err)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	engines, err := ports.ParseEngines(req.Engines)
	if err != nil {
		writeError(w, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid engines"))
		return
	}
	res, err := s.service.AnalyzeAll(r.Context(), req.Path, req.Code, engines)
	respond(w, res, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
		return
	}
	status := s.health.Check(r.Context())
	code := http.StatusOK
	if status.Status != "up" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openAPIDocument)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeTooLarge, "request body too large"),
			domainerrors.CtxLimit, tooLarge.Limit,
		)
	}
	return domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid request body")
}

func respond(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeError(w http.ResponseWriter, err error) {
	status := domainerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Code: domainerrors.CodeOf(err), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode api response", "error", err)
	}
}
