package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultStyle is the style every unknown or unloadable style falls
// back to.
const DefaultStyle = "default"

// Reload clears the template cache and re-reads every *.html file in the
// template directory, so on-disk template edits are picked up without
// reconstructing the pipeline.
func (r *Renderer) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read template dir: %w", err)
	}

	templates := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".html") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			r.log.Warn("load template", "file", name, "error", err)
			continue
		}
		style := strings.TrimSuffix(name, filepath.Ext(name))
		templates[style] = string(content)
	}
	if len(templates) == 0 {
		return fmt.Errorf("no templates in %s", r.dir)
	}
	if _, ok := templates[r.style]; !ok {
		if _, ok := templates[DefaultStyle]; !ok {
			return fmt.Errorf("neither style %q nor %q found in %s", r.style, DefaultStyle, r.dir)
		}
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()
	return nil
}

// Template returns the content for a style, falling back to the
// renderer's configured style and then to the default style. Reload
// guarantees at least one of those two is loaded.
func (r *Renderer) Template(style string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tmpl, ok := r.templates[style]; ok {
		return tmpl
	}
	if tmpl, ok := r.templates[r.style]; ok {
		return tmpl
	}
	return r.templates[DefaultStyle]
}

// Styles lists the loaded style identifiers.
func (r *Renderer) Styles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	styles := make([]string, 0, len(r.templates))
	for style := range r.templates {
		styles = append(styles, style)
	}
	sort.Strings(styles)
	return styles
}
