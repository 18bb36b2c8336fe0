package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/drafts"
	"slidegenie/internal/editor"
	"slidegenie/internal/routes"
	"slidegenie/internal/viewer"
)

const draftsFile = "drafts.db"

var editHelp = []struct{ usage, text string }{
	{"ls", "list slides"},
	{"show [n]", "print slide n (default: selected)"},
	{"sel <n>", "select slide n"},
	{"add", "add a slide after the selected one"},
	{"dup", "duplicate the selected slide"},
	{"rm", "delete the selected slide"},
	{"mv <from> <to>", "move a slide"},
	{"title <text>", "set the selected slide's title"},
	{"layout <name>", "change the selected slide's layout"},
	{"set <field> <text>", "set a content field, e.g. set content <p>Hi</p>"},
	{"notes <text>", "set speaker notes; `notes -` clears them"},
	{"rename <text>", "rename the presentation"},
	{"describe <text>", "set the presentation description"},
	{"status <s>", "draft, published or archived"},
	{"undo / redo", "step through history"},
	{"save", "save now"},
	{"info", "show save state"},
	{"quit", "save pending changes and leave"},
}

type editSession struct {
	a    *app
	ed   *editor.Editor
	text *viewer.TextRenderer
}

func runEdit(ctx context.Context, a *app, args []string) error {
	positional, err := parseArgs(newFlagSet("edit"), args)
	if err != nil {
		return err
	}
	id, err := requireID("edit", positional)
	if err != nil {
		return err
	}
	if err := a.guard(routes.PresentationEdit(id)); err != nil {
		return err
	}

	p, err := a.api.GetPresentation(ctx, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.HomeDir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", a.cfg.HomeDir, err)
	}
	journal, err := drafts.Open(ctx, filepath.Join(a.cfg.HomeDir, draftsFile), a.logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	ed := editor.New(p, a.api, editor.Options{
		AutosaveDelay: a.cfg.AutosaveDelay,
		SaveTimeout:   a.cfg.HTTPTimeout,
		Journal:       journal,
		Logger:        a.logger,
	})
	s := &editSession{a: a, ed: ed, text: viewer.NewTextRenderer()}

	draft, info, err := journal.Latest(ctx, id)
	switch {
	case err == nil && info.CreatedAt.After(p.UpdatedAt):
		a.warn("Found unsaved changes from %s (%d slides): %s",
			info.CreatedAt.Local().Format(time.DateTime), info.SlideCount, info.Cause)
		if a.confirm("Restore them?") {
			if err := ed.RecoverDraft(draft); err != nil {
				return err
			}
			a.success("Draft restored")
		}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		a.logger.Warn("could not read draft journal", "error", err)
	}

	a.heading("Editing " + s.text.Plain(ed.Presentation().Title))
	fmt.Fprintln(a.out, "Type `help` for commands.")
	s.list()

	err = s.loop(ctx)
	closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
	defer cancel()
	if cerr := ed.Close(closeCtx); cerr != nil {
		a.warn("Changes could not be saved and were kept locally: %v", cerr)
		return cerr
	}
	if ed.State().LastSaved.IsZero() {
		a.success("No changes")
	} else {
		a.success("All changes saved")
	}
	return err
}

func (s *editSession) loop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for s.a.in.Scan() {
			lines <- s.a.in.Text()
		}
	}()

	for {
		fmt.Fprintf(s.a.out, "%s[%d/%d]%s> ", colorBlue, s.ed.Selected()+1, len(s.ed.Presentation().Slides), colorReset)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.a.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		name, rest := splitCommand(line)
		if name == "" {
			continue
		}
		if name == "quit" || name == "exit" || name == "q" {
			return nil
		}
		s.a.logger.Debug("edit command", "command", name)
		if err := s.exec(ctx, name, rest); err != nil {
			s.a.printf(colorRed, "✗ %v", err)
		}
	}
}

func (s *editSession) exec(ctx context.Context, name, rest string) error {
	ed := s.ed
	sel := ed.Selected()
	switch name {
	case "help", "?":
		for _, h := range editHelp {
			fmt.Fprintf(s.a.out, "  %-20s %s\n", h.usage, h.text)
		}
	case "ls":
		s.list()
	case "show":
		i := sel
		if rest != "" {
			n, err := slideNumber(rest)
			if err != nil {
				return err
			}
			i = n
		}
		slides := ed.Presentation().Slides
		if i < 0 || i >= len(slides) {
			return &domain.NotFoundError{Message: fmt.Sprintf("slide %s not found", rest)}
		}
		out, err := s.text.Slide(slides[i], true)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.a.out, out)
	case "sel":
		n, err := slideNumber(rest)
		if err != nil {
			return err
		}
		return ed.Select(n)
	case "add":
		i, err := ed.AddSlide(sel)
		if err != nil {
			return err
		}
		s.a.success("Added slide %d", i+1)
	case "dup":
		i, err := ed.DuplicateSlide(sel)
		if err != nil {
			return err
		}
		s.a.success("Duplicated to slide %d", i+1)
	case "rm":
		ok, err := ed.DeleteSlide(sel)
		if err != nil {
			return err
		}
		if !ok {
			s.a.warn("A presentation needs at least one slide.")
			return nil
		}
		s.a.success("Deleted slide %d", sel+1)
	case "mv":
		from, to, ok := strings.Cut(rest, " ")
		if !ok {
			return errors.New("usage: mv <from> <to>")
		}
		f, err := slideNumber(from)
		if err != nil {
			return err
		}
		t, err := slideNumber(to)
		if err != nil {
			return err
		}
		return ed.ReorderSlides(f, t)
	case "title":
		return ed.UpdateSlide(sel, models.SlidePatch{Title: &rest})
	case "layout":
		layout := models.SlideLayout(rest)
		if !layout.Valid() {
			return &domain.ValidationError{Message: fmt.Sprintf("unknown layout %q", rest)}
		}
		return ed.UpdateSlide(sel, models.SlidePatch{Layout: &layout})
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		slides := ed.Presentation().Slides
		if sel >= len(slides) {
			return &domain.NotFoundError{Message: "no slide selected"}
		}
		slide := slides[sel]
		content, err := setContentField(slide.Content, slide.Layout, field, value)
		if err != nil {
			return err
		}
		return ed.UpdateSlide(sel, models.SlidePatch{Content: content})
	case "notes":
		notes := models.Set(rest)
		if rest == "-" {
			notes = models.Clear()
		}
		return ed.UpdateSlide(sel, models.SlidePatch{Notes: notes})
	case "rename":
		return ed.UpdatePresentation(models.PresentationPatch{Title: &rest})
	case "describe":
		return ed.UpdatePresentation(models.PresentationPatch{Description: &rest})
	case "status":
		status := models.PresentationStatus(rest)
		return ed.UpdatePresentation(models.PresentationPatch{Status: &status})
	case "undo":
		if !ed.Undo() {
			s.a.warn("Nothing to undo.")
		}
	case "redo":
		if !ed.Redo() {
			s.a.warn("Nothing to redo.")
		}
	case "save":
		if err := ed.Save(ctx); err != nil {
			if errors.Is(err, editor.ErrSaveInFlight) {
				s.a.warn("A save is already running.")
				return nil
			}
			return err
		}
		s.a.success("Saved")
	case "info":
		s.info()
	default:
		return fmt.Errorf("unknown command %q; type `help`", name)
	}
	return nil
}

func (s *editSession) list() {
	p := s.ed.Presentation()
	sel := s.ed.Selected()
	for i, sl := range p.Slides {
		marker := " "
		if i == sel {
			marker = "▸"
		}
		title := s.text.Plain(sl.Title)
		if title == "" {
			if heading, err := s.text.Slide(sl, false); err == nil {
				title = strings.TrimPrefix(strings.SplitN(heading, "\n", 2)[0], "## ")
			}
		}
		notes := ""
		if info := viewer.Notes(sl.Notes); info.Words > 0 {
			notes = fmt.Sprintf("  %s(%d words, %s)%s", colorDim, info.Words, viewer.FormatClock(info.SpeakingTime), colorReset)
		}
		fmt.Fprintf(s.a.out, "%s %2d. %-13s %s%s\n", marker, i+1, sl.Layout, truncate(title, 50), notes)
	}
}

func (s *editSession) info() {
	st := s.ed.State()
	switch {
	case st.Saving:
		s.a.printf(colorBlue, "Saving...")
	case st.LastError != nil:
		s.a.printf(colorRed, "Last save failed: %v", st.LastError)
	case st.HasUnsavedChanges:
		s.a.printf(colorYellow, "Unsaved changes")
	case !st.LastSaved.IsZero():
		s.a.printf(colorGreen, "Saved at %s", st.LastSaved.Local().Format(time.TimeOnly))
	default:
		s.a.printf(colorGreen, "No changes")
	}
	fmt.Fprintf(s.a.out, "Status: %s  Undo: %t  Redo: %t\n", st.Presentation.Status, st.CanUndo, st.CanRedo)
}

// splitCommand separates the command word from the rest of the line.
func splitCommand(line string) (string, string) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

// slideNumber converts a 1-based slide number to an index.
func slideNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("%q is not a slide number", s)}
	}
	return n - 1, nil
}

// setContentField returns a copy of c with one JSON field replaced. The
// field must belong to the variant used by layout.
func setContentField(c models.SlideContent, layout models.SlideLayout, field, value string) (models.SlideContent, error) {
	if field == "" {
		return nil, errors.New("usage: set <field> <text>")
	}
	if c == nil {
		c = models.DefaultContent(layout)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields[field] = value

	env, err := json.Marshal(map[string]any{"type": c.ContentType(), "data": fields})
	if err != nil {
		return nil, err
	}
	next, err := models.UnmarshalContent(layout, env)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return next, nil
	}

	data, err = json.Marshal(next)
	if err != nil {
		return nil, err
	}
	check := map[string]any{}
	if err := json.Unmarshal(data, &check); err != nil {
		return nil, err
	}
	if check[field] != value {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s slides have no %q field", layout, field)}
	}
	return next, nil
}
