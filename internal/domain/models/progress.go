package models

// Stage is one of the four ordered generation phases.
type Stage string

const (
	StageAnalyzing   Stage = "analyzing"
	StageStructuring Stage = "structuring"
	StageGenerating  Stage = "generating"
	StageFinalizing  Stage = "finalizing"
)

// Stages lists the generation phases in pipeline order.
var Stages = []Stage{StageAnalyzing, StageStructuring, StageGenerating, StageFinalizing}

// Index returns the stage's position in Stages, or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the four phases.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// GenerationProgress is one progress event for a generation job.
type GenerationProgress struct {
	ID           string         `json:"id"`
	Stage        Stage          `json:"stage"`
	Progress     int            `json:"progress"`
	CurrentSlide int            `json:"currentSlide,omitempty"`
	TotalSlides  int            `json:"totalSlides,omitempty"`
	Message      string         `json:"message,omitempty"`
	Preview      []SlidePreview `json:"preview,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// IsTerminal reports whether the event completes the job.
func (p GenerationProgress) IsTerminal() bool {
	return p.Stage == StageFinalizing && p.Progress == 100
}

// GenerationJob is the backend's acknowledgement of a generate request.
type GenerationJob struct {
	GenerationID  string `json:"generationId"`
	EstimatedTime int    `json:"estimatedTime"`
	WebsocketURL  string `json:"websocketUrl,omitempty"`
}

// ConferenceType is the presentation setting chosen in the creation wizard.
type ConferenceType string

const (
	ConferenceAcademic ConferenceType = "academic"
	ConferenceBusiness ConferenceType = "business"
	ConferenceWorkshop ConferenceType = "workshop"
	ConferenceLecture  ConferenceType = "lecture"
)

// PresentationConfig is the generation settings sent alongside content.
type PresentationConfig struct {
	Template         string         `json:"template"`
	ConferenceType   ConferenceType `json:"conferenceType"`
	Duration         int            `json:"duration"`
	IncludeCitations bool           `json:"includeCitations,omitempty"`
	IncludeMath      bool           `json:"includeMath,omitempty"`
	ColorScheme      string         `json:"colorScheme,omitempty"`
	Language         string         `json:"language,omitempty"`
}
