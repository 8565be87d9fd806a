package diagnosis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coercion records how the confidence score of a decoded analysis was adjusted.
type Coercion struct {
	Raw      any
	Adjusted bool
}

type wireAnalysis struct {
	IsHealthy       *bool           `json:"isHealthy"`
	DiseaseName     *string         `json:"diseaseName"`
	Description     *string         `json:"description"`
	Treatment       *string         `json:"treatment"`
	ConfidenceScore json.RawMessage `json:"confidenceScore"`
}

// Decode parses an Analysis from JSON produced by a model or by the relay.
// The boolean and text fields are required; the confidence score is coerced
// into range instead of being rejected.
func Decode(data []byte) (Analysis, Coercion, error) {
	var w wireAnalysis
	if err := json.Unmarshal(stripFence(data), &w); err != nil {
		return Analysis{}, Coercion{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	switch {
	case w.IsHealthy == nil:
		return Analysis{}, Coercion{}, fmt.Errorf("%w: isHealthy is required", ErrInvalidShape)
	case w.DiseaseName == nil:
		return Analysis{}, Coercion{}, fmt.Errorf("%w: diseaseName is required", ErrInvalidShape)
	case w.Description == nil:
		return Analysis{}, Coercion{}, fmt.Errorf("%w: description is required", ErrInvalidShape)
	case w.Treatment == nil:
		return Analysis{}, Coercion{}, fmt.Errorf("%w: treatment is required", ErrInvalidShape)
	}

	raw := rawConfidence(w.ConfidenceScore)
	score, adjusted := CoerceConfidence(raw)
	return Analysis{
		IsHealthy:       *w.IsHealthy,
		DiseaseName:     *w.DiseaseName,
		Description:     *w.Description,
		Treatment:       *w.Treatment,
		ConfidenceScore: score,
	}, Coercion{Raw: raw, Adjusted: adjusted}, nil
}

// rawConfidence decodes the score without forcing it into a float64, so
// numbers outside float64 range still reach CoerceConfidence.
func rawConfidence(msg json.RawMessage) any {
	if len(msg) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(msg)
	}
	return v
}

// stripFence drops a surrounding ```json markdown fence some models add.
func stripFence(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	data = bytes.TrimPrefix(data, []byte("```"))
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	}
	data = bytes.TrimSuffix(bytes.TrimSpace(data), []byte("```"))
	return bytes.TrimSpace(data)
}
