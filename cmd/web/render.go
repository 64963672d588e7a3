package main

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/miltonisblurrd/noLuckyDays/internal/format"
	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
)

var tmplCache *template.Template

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now":         time.Now,
		"money":       format.Money,
		"installment": format.Installment,
		"inc":         func(n int) int { return n + 1 },
		"dec":         func(n int) int { return n - 1 },
	}
	// Recursively discover and parse all .tmpl files. ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(cfg.TemplatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", cfg.TemplatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

func templates(w http.ResponseWriter) *template.Template {
	if cfg.DevMode {
		tc, err := parseTemplates()
		if err != nil {
			http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
			return nil
		}
		return tc
	}
	return tmplCache
}

// renderPage executes a full page template.
func renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	renderStatus(w, r, name, data, http.StatusOK)
}

// renderFrag executes an htmx fragment template.
func renderFrag(w http.ResponseWriter, r *http.Request, name string, data any) {
	renderStatus(w, r, name, data, http.StatusOK)
}

func renderStatus(w http.ResponseWriter, r *http.Request, name string, data any, status int) {
	t := templates(w)
	if t == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("template exec", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// errorPageData feeds the error template.
type errorPageData struct {
	Title       string
	Description string
	Message     string
}

// renderErrorPage shows the generic failure page; raw upstream detail stays
// in the logs.
func renderErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		t := templates(w)
		if t == nil {
			return
		}
		_ = t.ExecuteTemplate(w, "frag_error", errorPageData{Message: message})
		return
	}
	renderStatus(w, r, "error", errorPageData{Title: "Something went wrong", Message: message}, status)
}
