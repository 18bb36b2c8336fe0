package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"slidegenie/internal/collection"
	"slidegenie/internal/config"
	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/forms"
	"slidegenie/internal/gateway"
	"slidegenie/internal/routes"
	"slidegenie/internal/templates"
	"slidegenie/internal/viewer"
)

// listFetchLimit is how many summaries list asks the backend for before
// filtering locally.
const listFetchLimit = 500

func runList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("list")
	search := fs.String("search", "", "match title or description")
	template := fs.String("template", collection.All, "template name")
	status := fs.String("status", collection.All, "completed, in-progress or draft")
	dateRange := fs.String("range", string(collection.RangeAll), "today, week, month or year")
	sortKey := fs.String("sort", string(collection.SortModified), "modified, name or date")
	page := fs.Int("page", 1, "page number")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.Presentations); err != nil {
		return err
	}

	list, err := a.api.ListPresentations(ctx, gateway.ListParams{Limit: listFetchLimit})
	if err != nil {
		return err
	}
	result := collection.Apply(list.Presentations, collection.Query{
		Search:    *search,
		Template:  *template,
		Status:    *status,
		DateRange: collection.DateRange(*dateRange),
		Sort:      collection.ParseSort(*sortKey),
		Page:      *page,
		PageSize:  config.PageSize,
	}, time.Now())

	if result.Total == 0 {
		a.warn("No presentations match.")
		if names := collection.Templates(list.Presentations); len(names) > 0 {
			fmt.Fprintf(a.out, "Templates in use: %s\n", strings.Join(names, ", "))
		}
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tSLIDES\tTEMPLATE\tMODIFIED")
	for _, p := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, truncate(p.Title, 40), p.Status, p.SlideCount, p.Template, p.LastModified.Local().Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%sPage %d of %d, %d presentations%s\n", colorDim, result.Page, result.TotalPages, result.Total, colorReset)
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("show")
	notes := fs.Bool("notes", false, "include speaker notes")
	slide := fs.Int("slide", 0, "print only this slide (1-based)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("show", positional)
	if err != nil {
		return err
	}
	if err := a.guard(routes.Presentation(id)); err != nil {
		return err
	}

	p, err := a.api.GetPresentation(ctx, id)
	if err != nil {
		return err
	}
	text := viewer.NewTextRenderer()
	a.heading(text.Plain(p.Title))
	if p.Description != "" {
		fmt.Fprintln(a.out, text.Plain(p.Description))
	}
	for i, s := range p.Slides {
		if *slide > 0 && i != *slide-1 {
			continue
		}
		out, err := text.Slide(s, *notes)
		if err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
		a.rule()
		fmt.Fprintf(a.out, "%s[%d/%d]%s\n%s\n", colorDim, i+1, len(p.Slides), colorReset, out)
	}
	if *slide > len(p.Slides) {
		return &domain.NotFoundError{Message: fmt.Sprintf("slide %d not found", *slide)}
	}
	return nil
}

// catalog returns the built-in gallery overlaid with the backend's
// templates. A backend failure leaves the built-in gallery.
func (a *app) catalog(ctx context.Context) (*templates.Catalog, error) {
	c, err := templates.Builtin()
	if err != nil {
		return nil, err
	}
	if !a.session.IsAuthenticated() {
		return c, nil
	}
	remote, err := a.api.Templates(ctx)
	if err != nil {
		a.logger.Warn("using built-in templates", "error", err)
		return c, nil
	}
	c.Merge(remote)
	return c, nil
}

func runTemplates(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("templates")
	category := fs.String("category", "", "academic, business, creative or minimal")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := a.guard(routes.Templates); err != nil {
		return err
	}
	c, err := a.catalog(ctx)
	if err != nil {
		return err
	}

	if len(positional) > 0 {
		t, err := c.Get(positional[0])
		if err != nil {
			return err
		}
		a.heading(t.Name)
		fmt.Fprintf(a.out, "%s\nCategory: %s\n\n", t.Description, t.Category)
		for i, s := range templates.Skeleton(t, uuid.NewString) {
			fmt.Fprintf(a.out, "  %2d. %-14s %s\n", i+1, s.Layout, s.Title)
		}
		return nil
	}

	for _, cat := range c.Categories() {
		if *category != "" && string(cat) != *category {
			continue
		}
		a.heading(string(cat))
		for _, t := range c.List(cat) {
			fmt.Fprintf(a.out, "  %-18s %s (%d slides)\n", t.ID, t.Name, len(t.Slides))
		}
	}
	return nil
}

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("create")
	form := forms.CreatePresentationForm{}
	fs.StringVar(&form.Title, "title", "", "presentation title")
	fs.StringVar(&form.Description, "description", "", "short description")
	fs.StringVar(&form.TemplateID, "template", "", "template to start from")
	fs.StringVar(&form.Content, "content", "", "source text")
	fs.StringVar(&form.FilePath, "file", "", "source document")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.Create); err != nil {
		return err
	}
	form.Title = a.prompt("Title", form.Title)
	if err := form.Validate(); err != nil {
		return err
	}
	if form.FilePath != "" {
		if err := forms.ValidateUpload(form.FilePath); err != nil {
			return err
		}
		data, err := os.ReadFile(form.FilePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", form.FilePath, err)
		}
		form.Content = string(data)
	}

	p, err := a.api.CreatePresentation(ctx, form.Request())
	if err != nil {
		return err
	}
	if form.TemplateID != "" && len(p.Slides) == 0 {
		c, err := a.catalog(ctx)
		if err != nil {
			return err
		}
		t, err := c.Get(form.TemplateID)
		if err != nil {
			return err
		}
		p.Slides = templates.Skeleton(t, uuid.NewString)
		if p, err = a.api.UpdatePresentation(ctx, p); err != nil {
			return fmt.Errorf("apply template outline: %w", err)
		}
	}
	a.logger.Info("presentation created", "presentation_id", p.ID)
	a.success("Created %q (%s) with %d slides", p.Title, p.ID, len(p.Slides))
	fmt.Fprintf(a.out, "Edit it with: slidegenie edit %s\n", p.ID)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("delete", positional)
	if err != nil {
		return err
	}
	if err := a.guard(routes.Presentation(id)); err != nil {
		return err
	}
	if !*yes && !a.confirm(fmt.Sprintf("Delete presentation %s?", id)) {
		a.warn("Cancelled.")
		return nil
	}
	if err := a.api.DeletePresentation(ctx, id); err != nil {
		return err
	}
	a.success("Deleted %s", id)
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export")
	var opts models.ExportOptions
	format := fs.String("format", string(models.ExportPDF), "pdf, pptx or latex")
	quality := fs.String("quality", "", "low, medium or high")
	fs.BoolVar(&opts.IncludeNotes, "notes", false, "include speaker notes")
	fs.IntVar(&opts.SlidesPerPage, "per-page", 0, "PDF handout slides per page")
	fs.StringVar(&opts.EmailTo, "email", "", "also email the file to this address")
	outPath := fs.String("out", "", "download the finished file here")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("export", positional)
	if err != nil {
		return err
	}
	if err := a.guard(routes.PresentationExport(id)); err != nil {
		return err
	}
	opts.Format = models.ExportFormat(*format)
	opts.Quality = models.ExportQuality(*quality)
	if err := (forms.ExportForm{Options: opts}).Validate(); err != nil {
		return err
	}

	res, err := a.api.Export(ctx, id, opts)
	if err != nil {
		return err
	}
	fileURL := res.URL
	if fileURL == "" {
		a.printf(colorBlue, "⏳ Export %s queued, waiting for it to finish...", res.ID)
		rec, err := a.api.WaitForExport(ctx, id, res.ID)
		if err != nil {
			return err
		}
		fileURL = rec.URL
	}
	a.success("Export ready: %s", fileURL)
	if *outPath == "" {
		return nil
	}

	f, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *outPath, err)
	}
	n, err := a.api.Download(ctx, fileURL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download export: %w", err)
	}
	a.success("Saved %s (%d bytes)", *outPath, n)
	return nil
}

func runExports(ctx context.Context, a *app, args []string) error {
	positional, err := parseArgs(newFlagSet("exports"), args)
	if err != nil {
		return err
	}
	id, err := requireID("exports", positional)
	if err != nil {
		return err
	}
	if err := a.guard(routes.PresentationExport(id)); err != nil {
		return err
	}
	records, err := a.api.Exports(ctx, id)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.warn("No exports yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORMAT\tSTATUS\tCREATED\tURL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Format, r.Status, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.URL)
	}
	return tw.Flush()
}

func runCollaborators(ctx context.Context, a *app, args []string) error {
	positional, err := parseArgs(newFlagSet("collaborators"), args)
	if err != nil {
		return err
	}
	id, err := requireID("collaborators", positional)
	if err != nil {
		return err
	}
	if err := a.guard(routes.Presentation(id)); err != nil {
		return err
	}
	rest := positional[1:]
	usageErr := fmt.Errorf("usage: slidegenie %s", commands["collaborators"].usage)

	if len(rest) == 0 {
		list, err := a.api.Collaborators(ctx, id)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
		for _, c := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.User.Name, c.User.Email, c.Role, strconv.FormatBool(c.IsActive))
		}
		return tw.Flush()
	}

	switch rest[0] {
	case "add":
		if len(rest) != 3 {
			return usageErr
		}
		form := forms.CollaboratorForm{Email: rest[1], Role: models.CollaboratorRole(rest[2])}
		if err := form.Validate(); err != nil {
			return err
		}
		c, err := a.api.AddCollaborator(ctx, id, models.AddCollaboratorRequest{Email: form.Email, Role: form.Role})
		if err != nil {
			return err
		}
		a.success("Invited %s as %s", form.Email, c.Role)
	case "role":
		if len(rest) != 3 {
			return usageErr
		}
		role := models.CollaboratorRole(rest[2])
		if err := forms.ValidateRole(role); err != nil {
			return err
		}
		if _, err := a.api.UpdateCollaborator(ctx, id, rest[1], role); err != nil {
			return err
		}
		a.success("%s is now %s", rest[1], role)
	case "remove":
		if len(rest) != 2 {
			return usageErr
		}
		if err := a.api.RemoveCollaborator(ctx, id, rest[1]); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.warn("%s was not a collaborator", rest[1])
				return nil
			}
			return err
		}
		a.success("Removed %s", rest[1])
	default:
		return usageErr
	}
	return nil
}
