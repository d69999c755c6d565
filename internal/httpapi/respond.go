package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	layoutTemplate = "templates/layout.tmpl"

	editorCSS = AssetPrefix + "fields-editor.css"
	editorJS  = AssetPrefix + "fields-editor.js"
)

// errorBody matches the JSON error shape the booking widget expects.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Status: "error", Message: message})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

type script struct {
	Src   string `json:"src"`
	Defer bool   `json:"defer"`
}

type page struct {
	Title      string
	BodyClass  string
	Notice     string
	NoticeKind string
	Styles     []string
	Scripts    []script
}

// assetURL serves relative asset names from AssetPrefix.
func assetURL(name string) string {
	if strings.HasPrefix(name, "/") || strings.Contains(name, "://") {
		return name
	}
	return AssetPrefix + name
}

// renderPage renders body into the layout and writes it with status.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, p page, bodyTemplate string, data map[string]any) {
	body, err := s.pages.RenderTemplate(bodyTemplate, data)
	if err != nil {
		s.serverError(w, r, "render page body", err)
		return
	}
	html, err := s.pages.RenderTemplate(layoutTemplate, map[string]any{
		"title":       p.Title,
		"body_class":  p.BodyClass,
		"notice":      p.Notice,
		"notice_kind": p.NoticeKind,
		"styles":      p.Styles,
		"scripts":     p.Scripts,
		"body":        body,
	})
	if err != nil {
		s.serverError(w, r, "render layout", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// forbidden answers a failed nonce check; nothing has been written.
func (s *Server) forbidden(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("admin request rejected",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestID(r.Context())),
	)
	writeError(w, http.StatusForbidden, "The link you followed has expired.")
}
