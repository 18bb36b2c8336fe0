// Package progress turns generation progress events into what the progress
// screen shows, and simulates progress while no live connection is up.
package progress

import (
	"fmt"

	"slidegenie/internal/config"
	"slidegenie/internal/domain/models"
)

// StepState is how one pipeline stage is drawn.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
)

// Step is one row of the stage checklist.
type Step struct {
	Stage       models.Stage
	Label       string
	Description string
	State       StepState
}

var stageText = map[models.Stage][2]string{
	models.StageAnalyzing:   {"Analyzing content", "Understanding your document structure"},
	models.StageStructuring: {"Understanding structure", "Organizing information into slides"},
	models.StageGenerating:  {"Generating slides", "Creating your presentation"},
	models.StageFinalizing:  {"Finalizing presentation", "Adding final touches"},
}

var stageMessages = map[models.Stage][]string{
	models.StageAnalyzing:   {"Reading your document...", "Extracting key concepts...", "Identifying main topics..."},
	models.StageStructuring: {"Organizing content flow...", "Creating slide outline...", "Determining optimal structure..."},
	models.StageGenerating:  {"Creating slide content...", "Generating visuals...", "Adding transitions..."},
	models.StageFinalizing:  {"Applying final touches...", "Optimizing layout...", "Preparing for viewing..."},
}

// Steps lays out the four stages relative to current. An unknown stage
// leaves every step pending.
func Steps(current models.Stage) []Step {
	idx := current.Index()
	steps := make([]Step, len(models.Stages))
	for i, st := range models.Stages {
		state := StepPending
		switch {
		case idx < 0:
		case i < idx:
			state = StepCompleted
		case i == idx:
			state = StepActive
		}
		text := stageText[st]
		steps[i] = Step{Stage: st, Label: text[0], Description: text[1], State: state}
	}
	return steps
}

// Label is the heading for stage, or "Processing..." when unknown.
func Label(stage models.Stage) string {
	if text, ok := stageText[stage]; ok {
		return text[0]
	}
	return "Processing..."
}

// StageFor derives the stage the simulator reports at progress.
func StageFor(progress int) models.Stage {
	switch {
	case progress >= 80:
		return models.StageFinalizing
	case progress >= 40:
		return models.StageGenerating
	case progress >= 20:
		return models.StageStructuring
	default:
		return models.StageAnalyzing
	}
}

// Message picks one of the stage's status lines by overall progress.
func Message(stage models.Stage, progress int) string {
	msgs, ok := stageMessages[stage]
	if !ok {
		return ""
	}
	i := clamp(progress, 0, 100) * len(msgs) / 100
	return msgs[min(i, len(msgs)-1)]
}

// ETA formats the remaining time estimate as m:ss.
func ETA(progress int) string {
	remaining := (100 - clamp(progress, 0, 100)) * config.SecondsPerPercent
	return fmt.Sprintf("%d:%02d", remaining/60, remaining%60)
}

// PreviewStubs returns placeholder previews for the first count slides.
func PreviewStubs(count int) []models.SlidePreview {
	out := make([]models.SlidePreview, count)
	for i := range out {
		out[i] = models.SlidePreview{
			ID:    fmt.Sprintf("slide-%d", i+1),
			Title: fmt.Sprintf("Slide %d", i+1),
			Order: i + 1,
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
