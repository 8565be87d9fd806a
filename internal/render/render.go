package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/bryanwahyu/plant-md/internal/session"
)

const barWidth = 20

// Render writes the text form of snap to w.
func Render(w io.Writer, snap session.Snapshot) error {
	v := NewView(snap)
	var b strings.Builder

	switch v.State {
	case session.StateIdle:
		fmt.Fprintf(&b, "%s\n%s\n", WelcomeTitle, WelcomeMessage)
	case session.StateLoading:
		fmt.Fprintf(&b, "%s\n", LoadingMessage)
	case session.StateError:
		fmt.Fprintf(&b, "Error\n%s\n", v.Error)
	case session.StateResult:
		b.WriteString("Analysis Report\n")
		fmt.Fprintf(&b, "\nHealth Status\n  [%s] %s\n", v.Badge, v.DiseaseName)
		fmt.Fprintf(&b, "\nDescription\n  %s\n", v.Description)
		if v.ShowTreatment {
			fmt.Fprintf(&b, "\nSuggested Treatment\n%s\n", indent(v.Treatment))
		}
		fmt.Fprintf(&b, "\nConfidence Score\n  %s %s%% (%s)\n", bar(v.Confidence), formatScore(v.Confidence), v.Level)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func bar(score float64) string {
	filled := int(math.Round(score / 100 * barWidth))
	filled = max(0, min(barWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}

func formatScore(score float64) string {
	if score == math.Trunc(score) {
		return fmt.Sprintf("%.0f", score)
	}
	return fmt.Sprintf("%.1f", score)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
