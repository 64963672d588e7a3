// Package content loads the store's policy documents from local markdown
// files with YAML front matter and renders them to sanitized HTML.
package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no document exists for the slug.
var ErrNotFound = errors.New("content: not found")

// Page is one rendered policy document.
type Page struct {
	Slug          string
	Title         string
	Summary       string
	Body          template.HTML
	EffectiveDate time.Time
	UpdatedAt     time.Time
	Version       string
	ETag          string
}

type frontMatter struct {
	Title         string `yaml:"title"`
	Summary       string `yaml:"summary"`
	EffectiveDate string `yaml:"effective_date"`
	UpdatedAt     string `yaml:"updated_at"`
	Version       string `yaml:"version"`
}

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// Store reads documents from a directory, caching rendered pages for a TTL.
type Store struct {
	dir string

	mu    sync.RWMutex
	ttl   time.Duration
	cache map[string]cacheEntry
}

type cacheEntry struct {
	page    Page
	expires time.Time
}

// NewStore builds a Store over dir (defaults to "content").
func NewStore(dir string) *Store {
	if strings.TrimSpace(dir) == "" {
		dir = "content"
	}
	return &Store{
		dir:   dir,
		ttl:   5 * time.Minute,
		cache: map[string]cacheEntry{},
	}
}

// SetCacheTTL overrides the in-memory cache duration, primarily for tests.
func (s *Store) SetCacheTTL(d time.Duration) {
	if d <= 0 {
		d = time.Minute
	}
	s.mu.Lock()
	s.ttl = d
	s.cache = map[string]cacheEntry{}
	s.mu.Unlock()
}

// Page loads and renders the policy document for slug.
func (s *Store) Page(slug string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}

	s.mu.RLock()
	entry, ok := s.cache[slug]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.page, nil
	}

	page, err := s.read(slug)
	if err != nil {
		return Page{}, err
	}

	s.mu.Lock()
	s.cache[slug] = cacheEntry{page: page, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return page, nil
}

func (s *Store) read(slug string) (Page, error) {
	file := filepath.Join(s.dir, "policies", slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	info, statErr := os.Stat(file)

	fm, body := splitFrontMatter(string(data))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", file, err)
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())

	page := Page{
		Slug:    slug,
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		Body:    template.HTML(safe),
		Version: strings.TrimSpace(front.Version),
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	page.EffectiveDate = parseDate(front.EffectiveDate)
	page.UpdatedAt = parseDate(front.UpdatedAt)
	if page.UpdatedAt.IsZero() && statErr == nil {
		page.UpdatedAt = info.ModTime()
	}
	sum := sha256.Sum256(append([]byte(page.Version+"|"), data...))
	page.ETag = `"` + hex.EncodeToString(sum[:16]) + `"`
	return page, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\uFEFF")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return "", input
}

func sanitizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, r := range slug {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			continue
		}
		return ""
	}
	return slug
}

func prettifySlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func parseDate(val string) time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts
		}
	}
	return time.Time{}
}
