package diagnosis

// HealthyName is the disease name reported for a plant with no detected disease.
const HealthyName = "Healthy"

// Analysis is the structured diagnosis of one leaf image. It is exchanged
// between the relay and its clients and is never persisted.
type Analysis struct {
	IsHealthy       bool    `json:"isHealthy"`
	DiseaseName     string  `json:"diseaseName"`
	Description     string  `json:"description"`
	Treatment       string  `json:"treatment"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// Image is a decoded leaf photo together with its content type.
type Image struct {
	Data     []byte
	MimeType string
}
