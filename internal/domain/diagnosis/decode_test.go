package diagnosis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PassesThroughValidAnalysis(t *testing.T) {
	want := Analysis{
		IsHealthy:       false,
		DiseaseName:     "Early Blight",
		Description:     "Concentric brown rings on older leaves.",
		Treatment:       "Remove infected leaves and apply a copper fungicide.",
		ConfidenceScore: 87.5,
	}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	got, c, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, c.Adjusted)
}

func TestDecode_CoercesConfidence(t *testing.T) {
	tests := []struct {
		name  string
		score string
		want  float64
	}{
		{"negative", `-10`, 0},
		{"over max", `150`, 100},
		{"NaN string", `"NaN"`, 0},
		{"missing", ``, 0},
		{"null", `null`, 0},
		{"beyond float64", `1e400`, 100},
		{"below float64", `-1e400`, 0},
		{"object", `{"value":90}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"isHealthy":true,"diseaseName":"Healthy","description":"d","treatment":"t"`
			if tt.score != "" {
				body += `,"confidenceScore":` + tt.score
			}
			body += `}`

			got, c, err := Decode([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ConfidenceScore)
			assert.True(t, c.Adjusted)
		})
	}
}

func TestDecode_RejectsInvalidShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `I think the plant is fine`},
		{"array", `[1,2,3]`},
		{"null", `null`},
		{"missing isHealthy", `{"diseaseName":"x","description":"d","treatment":"t","confidenceScore":1}`},
		{"missing treatment", `{"isHealthy":true,"diseaseName":"x","description":"d","confidenceScore":1}`},
		{"wrong type", `{"isHealthy":"yes","diseaseName":"x","description":"d","treatment":"t","confidenceScore":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.body))
			assert.ErrorIs(t, err, ErrInvalidShape)
		})
	}
}

func TestDecode_StripsMarkdownFence(t *testing.T) {
	body := "```json\n{\"isHealthy\":true,\"diseaseName\":\"Healthy\",\"description\":\"d\",\"treatment\":\"t\",\"confidenceScore\":90}\n```"

	got, _, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.True(t, got.IsHealthy)
	assert.Equal(t, 90.0, got.ConfidenceScore)
}
