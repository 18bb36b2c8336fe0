package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"slidegenie/internal/domain/models"
	"slidegenie/internal/routes"
	"slidegenie/internal/viewer"
)

func runPresent(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("present")
	addr := fs.String("addr", a.cfg.PreviewAddr, "address for the preview server")
	markup := fs.String("markup", "", "write the deck markup to this file and exit")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("present", positional)
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
	renderer, err := viewer.NewRenderer(viewer.RenderOptions{
		Theme:  viewer.ThemeFor(a.template(ctx, p)),
		Logger: a.logger,
	})
	if err != nil {
		return err
	}

	if *markup != "" {
		data, err := renderer.DeckMarkup(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*markup, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", *markup, err)
		}
		a.success("Wrote %s (%d slides)", *markup, len(p.Slides))
		return nil
	}

	srv, err := viewer.NewServer(p, viewer.ServerOptions{
		Renderer:       renderer,
		AllowedOrigins: a.cfg.PreviewOrigins,
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, *addr, func(bound net.Addr) {
		a.heading(renderer.Text().Plain(p.Title))
		a.success("Presenting %d slides at http://%s", len(p.Slides), bound)
		fmt.Fprintln(a.out, "Press ? in the browser for shortcuts, Ctrl-C here to stop.")
	})
}

// template resolves the presentation's template for theming. Unknown or
// unset templates yield nil, which means the default theme.
func (a *app) template(ctx context.Context, p *models.Presentation) *models.Template {
	if p.TemplateID == "" {
		return nil
	}
	c, err := a.catalog(ctx)
	if err != nil {
		a.logger.Warn("template catalog unavailable", "error", err)
		return nil
	}
	if t, err := c.Get(p.TemplateID); err == nil {
		return t
	}
	t, err := a.api.Template(ctx, p.TemplateID)
	if err != nil {
		a.logger.Debug("template not found, using default theme", "template_id", p.TemplateID, "error", err)
		return nil
	}
	return t
}
