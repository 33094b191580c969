package model

// Context labels the quick-response helpers send with a question.
const (
	ContextLocation     = "location_inquiry"
	ContextPricing      = "pricing_inquiry"
	ContextAvailability = "availability_inquiry"
	ContextAmenities    = "amenities_inquiry"
)

// AssistantRequest is the remote-model request body
type AssistantRequest struct {
	Query       string   `json:"query" binding:"required"`
	ProjectData *Project `json:"projectData"`
	UnitsData   []Unit   `json:"unitsData"`
	FAQsData    []FAQ    `json:"faqsData"`
	Context     string   `json:"context,omitempty"`
}

// AssistantResponse is the remote-model success body. Fallback is set
// only when the answer was computed locally after the remote call failed.
type AssistantResponse struct {
	Response      string     `json:"response"`
	RelevantUnits []Unit     `json:"relevantUnits"`
	Confidence    Confidence `json:"confidence"`
	ResponseTime  int64      `json:"responseTime"`
	Fallback      string     `json:"fallback,omitempty"`
	Cached        bool       `json:"cached,omitempty"`
}

// AssistantError is the remote-model error body
type AssistantError struct {
	Error    string `json:"error"`
	Fallback string `json:"fallback"`
}
