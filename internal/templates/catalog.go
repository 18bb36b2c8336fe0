// Package templates holds the built-in template gallery. It backs the
// gallery when the server's list is unavailable and supplies slide
// skeletons and colors for local rendering.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

//go:embed catalog/*.yaml
var catalogFiles embed.FS

// Catalog is a read-mostly set of templates keyed by ID. Safe for concurrent
// use.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*models.Template
	order     []string
}

// Builtin loads the embedded gallery. Each file's base name is the
// template ID.
func Builtin() (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*models.Template)}
	names, err := fs.Glob(catalogFiles, "catalog/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list template files: %w", err)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := c.loadFile(name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadFile(name string) error {
	data, err := catalogFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	var t models.Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	t.ID = strings.TrimSuffix(path.Base(name), path.Ext(name))
	if err := validate(&t); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	c.Put(t)
	return nil
}

func validate(t *models.Template) error {
	if t.Name == "" {
		return &domain.ValidationError{Message: "template name is required"}
	}
	for i, s := range t.Slides {
		if !s.Layout.Valid() {
			return &domain.ValidationError{Message: fmt.Sprintf("slide %d: unknown layout %q", i, s.Layout)}
		}
	}
	return nil
}

// Put adds or replaces a template. New IDs go to the end of the list.
func (c *Catalog) Put(t models.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.templates[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.templates[t.ID] = &t
}

// Merge overlays server-provided templates on the catalog. Server entries
// win on ID clashes and keep their own colors only where they set them.
func (c *Catalog) Merge(remote []models.Template) {
	for _, t := range remote {
		if t.ID == "" {
			continue
		}
		if local, err := c.Get(t.ID); err == nil {
			if t.Background == "" {
				t.Background = local.Background
			}
			if t.Foreground == "" {
				t.Foreground = local.Foreground
			}
			if t.Accent == "" {
				t.Accent = local.Accent
			}
			if len(t.Slides) == 0 {
				t.Slides = local.Slides
			}
		}
		c.Put(t)
	}
}

// Get returns a copy of the template with the given ID.
func (c *Catalog) Get(id string) (*models.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("template %q not found", id)}
	}
	cp := *t
	cp.Slides = slices.Clone(t.Slides)
	return &cp, nil
}

// List returns templates in catalog order, filtered to category unless it is
// empty.
func (c *Catalog) List(category models.TemplateCategory) []models.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Template, 0, len(c.order))
	for _, id := range c.order {
		t := c.templates[id]
		if category != "" && t.Category != category {
			continue
		}
		cp := *t
		cp.Slides = slices.Clone(t.Slides)
		out = append(out, cp)
	}
	return out
}

// Categories returns the distinct categories in catalog order.
func (c *Catalog) Categories() []models.TemplateCategory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.TemplateCategory
	for _, id := range c.order {
		cat := c.templates[id].Category
		if cat != "" && !slices.Contains(out, cat) {
			out = append(out, cat)
		}
	}
	return out
}

// Skeleton builds empty slides from the template's outline. newID supplies
// slide IDs.
func Skeleton(t *models.Template, newID func() string) []models.Slide {
	slides := make([]models.Slide, len(t.Slides))
	for i, st := range t.Slides {
		slides[i] = models.Slide{
			ID:      newID(),
			Order:   i,
			Title:   st.Title,
			Layout:  st.Layout,
			Content: models.ConvertContent(models.TextContent{Title: st.Title}, st.Layout),
		}
	}
	return slides
}
