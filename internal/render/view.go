// Package render turns session snapshots into a text report.
package render

import (
	"github.com/bryanwahyu/plant-md/internal/session"
)

const (
	WelcomeTitle   = "Welcome to Plant-MD!"
	WelcomeMessage = "Upload an image of a plant leaf, and our AI will analyze its health, identify potential diseases, and suggest treatment options."
	LoadingMessage = "Analyzing your plant..."
)

// Badge is the colour class of the health status.
type Badge string

const (
	BadgeHealthy   Badge = "healthy"   // green
	BadgeAttention Badge = "attention" // yellow
)

// Level is the colour class of the confidence score.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// View is everything the presentation needs for one snapshot.
type View struct {
	State session.State

	Error string

	Badge         Badge
	DiseaseName   string
	Description   string
	ShowTreatment bool
	Treatment     string
	Confidence    float64
	Level         Level
}

// NewView derives the view for a snapshot. It has no side effects.
func NewView(snap session.Snapshot) View {
	v := View{State: snap.State}
	switch snap.State {
	case session.StateError:
		v.Error = snap.Err
	case session.StateResult:
		a := snap.Analysis
		v.Badge = BadgeAttention
		if a.IsHealthy {
			v.Badge = BadgeHealthy
		}
		v.DiseaseName = a.DiseaseName
		v.Description = a.Description
		v.ShowTreatment = !a.IsHealthy
		v.Treatment = a.Treatment
		v.Confidence = a.ConfidenceScore
		v.Level = levelFor(a.ConfidenceScore)
	}
	return v
}

func levelFor(score float64) Level {
	switch {
	case score > 85:
		return LevelHigh
	case score > 60:
		return LevelMedium
	default:
		return LevelLow
	}
}
