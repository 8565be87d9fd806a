package prompt

import "encoding/json"

const instruction = `You are an expert botanist and plant pathologist. Analyze the provided image of a plant leaf.
1. Identify the disease, if any. If the plant is healthy, state that and use "Healthy" as the disease name.
2. Provide a detailed but easy-to-understand description of the condition.
3. Suggest actionable treatment steps. If healthy, suggest general care tips.
4. Provide a confidence score between 0 and 100 (a percentage) for your analysis.

Return the response in the specified JSON format only, without markdown or commentary.`

// Field is one property of the structured output.
type Field struct {
	Name        string
	Kind        string // JSON Schema type: boolean, string or number
	Description string
}

var fields = []Field{
	{"isHealthy", "boolean", "true when no disease is detected"},
	{"diseaseName", "string", "common name of the disease, or Healthy"},
	{"description", "string", "description of the condition"},
	{"treatment", "string", "actionable treatment steps or general care tips"},
	{"confidenceScore", "number", "confidence percentage from 0 to 100"},
}

// Instruction is the fixed analysis prompt sent next to the image.
func Instruction() string { return instruction }

// Fields returns the analysis properties in response order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

// Required lists every field of the analysis schema; all of them are required.
func Required() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// JSONSchema returns the schema as strict JSON Schema for OpenAI structured outputs.
func JSONSchema() json.RawMessage {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = map[string]any{"type": f.Kind, "description": f.Description}
	}
	b, _ := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             Required(),
		"additionalProperties": false,
	})
	return b
}
