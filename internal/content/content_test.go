package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, slug, body string) {
	t.Helper()
	policies := filepath.Join(dir, "policies")
	require.NoError(t, os.MkdirAll(policies, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(policies, slug+".md"), []byte(body), 0o644))
}

func TestPageRendersFrontMatterAndMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "privacy", `---
title: Privacy Policy
summary: How we handle your data.
effective_date: 2025-01-15
version: "2"
---

## Collection

We collect *very little*.
`)

	store := NewStore(dir)
	page, err := store.Page("privacy")
	require.NoError(t, err)

	require.Equal(t, "privacy", page.Slug)
	require.Equal(t, "Privacy Policy", page.Title)
	require.Equal(t, "How we handle your data.", page.Summary)
	require.Equal(t, "2", page.Version)
	require.Equal(t, 2025, page.EffectiveDate.Year())
	require.False(t, page.UpdatedAt.IsZero(), "falls back to file mtime")
	require.NotEmpty(t, page.ETag)

	body := string(page.Body)
	require.Contains(t, body, "<h2")
	require.Contains(t, body, "<em>very little</em>")
}

func TestPageSanitizesHTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "terms", "Hello <script>alert(1)</script> world\n")

	store := NewStore(dir)
	page, err := store.Page("terms")
	require.NoError(t, err)
	require.NotContains(t, string(page.Body), "<script>")
	require.Contains(t, string(page.Body), "Hello")
}

func TestPageMissingTitleFallsBackToSlug(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "shipping-policy", "Ships fast.\n")

	store := NewStore(dir)
	page, err := store.Page("shipping-policy")
	require.NoError(t, err)
	require.Equal(t, "Shipping Policy", page.Title)
}

func TestPageNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	_, err := store.Page("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPageRejectsTraversalSlugs(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, slug := range []string{"../secret", "a/b", "UPPER CASE", ""} {
		_, err := store.Page(slug)
		require.ErrorIs(t, err, ErrNotFound, "slug %q", slug)
	}
}

func TestPageCachesWithinTTL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "refund", "---\ntitle: Refunds\n---\n\nOld copy.\n")

	store := NewStore(dir)
	store.SetCacheTTL(time.Hour)

	first, err := store.Page("refund")
	require.NoError(t, err)
	require.Contains(t, string(first.Body), "Old copy.")

	writeDoc(t, dir, "refund", "---\ntitle: Refunds\n---\n\nNew copy.\n")
	cached, err := store.Page("refund")
	require.NoError(t, err)
	require.Contains(t, string(cached.Body), "Old copy.", "served from cache within the TTL")

	store.SetCacheTTL(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	fresh, err := store.Page("refund")
	require.NoError(t, err)
	require.Contains(t, string(fresh.Body), "New copy.")
}

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()

	fm, body := splitFrontMatter("---\ntitle: X\n---\nbody here")
	require.Equal(t, "title: X", strings.TrimSpace(fm))
	require.Equal(t, "body here", strings.TrimSpace(body))

	fm, body = splitFrontMatter("no front matter")
	require.Empty(t, fm)
	require.Equal(t, "no front matter", body)

	// unterminated fence is treated as plain content
	fm, body = splitFrontMatter("---\ntitle: X\nbody")
	require.Empty(t, fm)
	require.Contains(t, body, "title: X")
}
