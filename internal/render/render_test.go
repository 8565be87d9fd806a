package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
	"github.com/bryanwahyu/plant-md/internal/session"
)

func result(a diagnosis.Analysis) session.Snapshot {
	return session.Snapshot{State: session.StateResult, Generation: 1, Analysis: a}
}

func TestNewView_HealthyHidesTreatment(t *testing.T) {
	v := NewView(result(diagnosis.Analysis{
		IsHealthy:       true,
		DiseaseName:     "Healthy",
		Description:     "...",
		Treatment:       "Water regularly",
		ConfidenceScore: 92,
	}))

	assert.Equal(t, BadgeHealthy, v.Badge)
	assert.False(t, v.ShowTreatment)
	assert.Equal(t, LevelHigh, v.Level)
}

func TestNewView_DiseasedShowsTreatment(t *testing.T) {
	v := NewView(result(diagnosis.Analysis{
		DiseaseName:     "Late Blight",
		Treatment:       "Remove affected plants.",
		ConfidenceScore: 61,
	}))

	assert.Equal(t, BadgeAttention, v.Badge)
	assert.True(t, v.ShowTreatment)
	assert.Equal(t, LevelMedium, v.Level)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelHigh, levelFor(86))
	assert.Equal(t, LevelMedium, levelFor(85))
	assert.Equal(t, LevelMedium, levelFor(60.5))
	assert.Equal(t, LevelLow, levelFor(60))
	assert.Equal(t, LevelLow, levelFor(0))
}

func TestRender_States(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want []string
		not  []string
	}{
		{
			name: "idle",
			snap: session.Snapshot{},
			want: []string{WelcomeTitle, WelcomeMessage},
		},
		{
			name: "loading",
			snap: session.Snapshot{State: session.StateLoading, Generation: 1},
			want: []string{LoadingMessage},
			not:  []string{WelcomeTitle},
		},
		{
			name: "error shown verbatim",
			snap: session.Snapshot{State: session.StateError, Generation: 1, Err: `Gemini API error: {"code":500}`},
			want: []string{"Error\n", `Gemini API error: {"code":500}`},
			not:  []string{LoadingMessage, "Analysis Report"},
		},
		{
			name: "healthy result",
			snap: result(diagnosis.Analysis{IsHealthy: true, DiseaseName: "Healthy", Description: "Fine.", Treatment: "Water regularly", ConfidenceScore: 92}),
			want: []string{"Analysis Report", "[healthy] Healthy", "Fine.", "92% (high)"},
			not:  []string{"Suggested Treatment", "Water regularly"},
		},
		{
			name: "diseased result",
			snap: result(diagnosis.Analysis{DiseaseName: "Rust", Description: "Orange pustules.", Treatment: "Step one\nStep two", ConfidenceScore: 100}),
			want: []string{"[attention] Rust", "Suggested Treatment\n  Step one\n  Step two", "[####################] 100% (high)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, tt.snap))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.not {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[--------------------]", bar(0))
	assert.Equal(t, "[##########----------]", bar(50))
	assert.Equal(t, "[####################]", bar(100))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "92", formatScore(92))
	assert.Equal(t, "73.4", formatScore(73.4))
}
