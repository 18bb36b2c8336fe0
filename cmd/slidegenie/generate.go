package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"slidegenie/internal/domain/models"
	"slidegenie/internal/forms"
	"slidegenie/internal/gateway"
	"slidegenie/internal/live"
	"slidegenie/internal/progress"
	"slidegenie/internal/routes"
)

func runGenerate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("generate")
	form := forms.GenerationForm{Config: forms.DefaultGenerationConfig()}
	fs.StringVar(&form.Content, "content", "", "source text")
	fs.StringVar(&form.FilePath, "file", "", "source document (.pdf, .docx, .tex, .txt)")
	fs.StringVar(&form.Config.Template, "template", form.Config.Template, "template ID")
	conference := fs.String("type", string(form.Config.ConferenceType), "academic, business, workshop or lecture")
	fs.IntVar(&form.Config.Duration, "duration", form.Config.Duration, "talk length in minutes")
	fs.BoolVar(&form.Config.IncludeCitations, "citations", false, "add citation slides")
	fs.BoolVar(&form.Config.IncludeMath, "math", false, "typeset equations")
	fs.StringVar(&form.Config.Language, "language", form.Config.Language, "output language")
	watch := fs.Bool("watch", true, "follow progress after submitting")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if err := a.guard(routes.Create); err != nil {
		return err
	}
	form.Config.ConferenceType = models.ConferenceType(*conference)

	if form.FilePath != "" {
		if err := forms.ValidateUpload(form.FilePath); err != nil {
			return err
		}
	}
	if err := form.Validate(); err != nil {
		return err
	}
	if c, err := a.catalog(ctx); err == nil {
		if _, err := c.Get(form.Config.Template); err != nil {
			a.warn("Template %q is not in the gallery; the server will decide.", form.Config.Template)
		}
	}

	a.heading("Generate presentation")
	fmt.Fprintf(a.out, "Template:   %s\n", form.Config.Template)
	fmt.Fprintf(a.out, "Setting:    %s, %d minutes (about %d slides)\n",
		form.Config.ConferenceType, form.Config.Duration, forms.EstimatedSlides(form.Config.Duration))
	fmt.Fprintf(a.out, "Cost:       %.2f credits\n", forms.EstimatedCost(form.Config))

	job, err := a.api.Generate(ctx, gateway.GenerateRequest{
		Content:  strings.TrimSpace(form.Content),
		FilePath: form.FilePath,
		Config:   form.Config,
	})
	if err != nil {
		return fmt.Errorf("start generation: %w", err)
	}
	a.logger.Info("generation started", "generation_id", job.GenerationID, "estimated_seconds", job.EstimatedTime)
	a.success("Generation %s started", job.GenerationID)
	if !*watch {
		fmt.Fprintf(a.out, "Follow it with: slidegenie watch %s\n", job.GenerationID)
		return nil
	}
	return a.watch(ctx, job.GenerationID, job.WebsocketURL, "")
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("watch")
	cancel := fs.Bool("cancel", false, "cancel the generation")
	retry := fs.Bool("retry", false, "run a failed generation again")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := requireID("watch", positional)
	if err != nil {
		return err
	}
	action := ""
	switch {
	case *cancel && *retry:
		return fmt.Errorf("-cancel and -retry are exclusive")
	case *cancel:
		action = "cancel"
	case *retry:
		action = "retry"
	}
	return a.watch(ctx, id, "", action)
}

// watch follows a generation until the tracker navigates away or ctx ends.
// An interrupt leaves the job running on the server.
func (a *app) watch(ctx context.Context, generationID, socketURL, action string) error {
	if err := a.guard(routes.Progress(generationID)); err != nil {
		return err
	}
	if socketURL == "" {
		socketURL = a.cfg.GenerationSocketURL(generationID)
	}

	var (
		mu   sync.Mutex
		dest string
	)
	printer := &progressPrinter{a: a}
	tracker := progress.NewTracker(generationID, socketURL, a.api, progress.TrackerOptions{
		Live: live.Options{
			BaseDelay:   a.cfg.ReconnectDelay,
			MaxAttempts: a.cfg.ReconnectAttempts,
		},
		Logger: a.logger,
		Navigate: func(path string) {
			mu.Lock()
			dest = path
			mu.Unlock()
		},
		OnUpdate: printer.update,
	})
	defer tracker.Close()

	switch action {
	case "cancel":
		err := tracker.Cancel(ctx)
		a.warn("Generation cancelled.")
		return err
	case "retry":
		tracker.Start(ctx)
		if err := tracker.Retry(ctx); err != nil {
			return err
		}
	default:
		tracker.Start(ctx)
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(a.out)
		a.warn("Stopped watching; the generation continues. Resume with: slidegenie watch %s", generationID)
		return nil
	case <-tracker.Done():
	}

	mu.Lock()
	path := dest
	mu.Unlock()
	fmt.Fprintln(a.out)
	if rest, ok := strings.CutPrefix(path, "/presentation/"); ok {
		if id, ok := strings.CutSuffix(rest, "/edit"); ok {
			if unescaped, err := url.PathUnescape(id); err == nil {
				id = unescaped
			}
			a.success("Your presentation is ready.")
			fmt.Fprintf(a.out, "Open it with: slidegenie edit %s\n", id)
			return nil
		}
	}
	a.printf(colorBlue, "Next: %s", path)
	return nil
}

// progressPrinter renders tracker snapshots as status lines, printing only
// when something visible changed.
type progressPrinter struct {
	a *app

	mu    sync.Mutex
	last  string
	stage models.Stage
}

func (p *progressPrinter) update(s progress.Snapshot) {
	source := "simulated"
	if s.Live {
		source = "live"
	}
	line := fmt.Sprintf("[%s] %3d%%  ETA %s  %s (%s)",
		s.Label, s.Progress.Progress, s.ETA, s.Progress.Message, source)
	if s.Progress.TotalSlides > 0 {
		line += fmt.Sprintf("  slide %d/%d", s.Progress.CurrentSlide, s.Progress.TotalSlides)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Progress.Stage != p.stage {
		p.stage = s.Progress.Stage
		var steps []string
		for _, st := range s.Steps {
			mark := "·"
			switch st.State {
			case progress.StepCompleted:
				mark = "✓"
			case progress.StepActive:
				mark = "▸"
			}
			steps = append(steps, mark+" "+st.Label)
		}
		p.a.printf(colorCyan, "%s", strings.Join(steps, "   "))
	}
	if s.Notice != "" {
		line += "  " + colorYellow + s.Notice + colorReset
	}
	if s.Error != "" {
		line += "  " + colorRed + s.Error + colorReset
	}
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.a.out, line)
	if s.Complete {
		p.a.success("Generation complete")
	}
}
