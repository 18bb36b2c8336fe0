package templates

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

func TestBuiltinCatalog(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	all := c.List("")
	require.Len(t, all, 4)
	ids := make([]string, len(all))
	for i, tpl := range all {
		ids[i] = tpl.ID
		assert.NotEmpty(t, tpl.Slides, tpl.ID)
	}
	assert.Equal(t, []string{"academic-modern", "business-pro", "creative-bold", "minimal-elegant"}, ids)
	assert.Equal(t, []models.TemplateCategory{
		models.CategoryAcademic, models.CategoryBusiness, models.CategoryCreative, models.CategoryMinimal,
	}, c.Categories())

	academic := c.List(models.CategoryAcademic)
	require.Len(t, academic, 1)
	assert.Equal(t, "Academic Modern", academic[0].Name)
	assert.Equal(t, "rgb(37,99,235)", academic[0].Accent)
}

func TestGet(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	tpl, err := c.Get("minimal-elegant")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryMinimal, tpl.Category)

	tpl.Slides[0].Title = "mutated"
	again, err := c.Get("minimal-elegant")
	require.NoError(t, err)
	assert.Equal(t, "Title", again.Slides[0].Title, "Get returns a copy")

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMerge(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	c.Merge([]models.Template{
		{ID: "academic-modern", Name: "Academic Modern v2", Category: models.CategoryAcademic},
		{ID: "thesis-defense", Name: "Thesis Defense", Category: models.CategoryAcademic, Accent: "maroon"},
		{Name: "no id is ignored"},
	})

	merged, err := c.Get("academic-modern")
	require.NoError(t, err)
	assert.Equal(t, "Academic Modern v2", merged.Name)
	assert.Equal(t, "rgb(37,99,235)", merged.Accent, "missing colors fall back to the built-in entry")
	assert.NotEmpty(t, merged.Slides)

	academic := c.List(models.CategoryAcademic)
	require.Len(t, academic, 2)
	assert.Equal(t, "thesis-defense", academic[1].ID)
	assert.Len(t, c.List(""), 5)
}

func TestSkeleton(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	tpl, err := c.Get("academic-modern")
	require.NoError(t, err)

	n := 0
	slides := Skeleton(tpl, func() string { n++; return fmt.Sprintf("id-%d", n) })
	require.Len(t, slides, len(tpl.Slides))
	for i, s := range slides {
		assert.Equal(t, i, s.Order)
		assert.Equal(t, fmt.Sprintf("id-%d", i+1), s.ID)
		assert.Equal(t, tpl.Slides[i].Layout, s.Layout)
		assert.IsType(t, models.DefaultContent(s.Layout), s.Content, s.Layout)
	}
	assert.Equal(t, models.TitleContent{Title: "Title"}, slides[0].Content)
}

func TestValidateRejectsUnknownLayout(t *testing.T) {
	err := validate(&models.Template{Name: "x", Slides: []models.SlideTemplate{{Layout: "diagonal"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, validate(&models.Template{}), domain.ErrValidation)
}
