package models

// AdviceRequest is the payload of the pet advice widget.
type AdviceRequest struct {
	Question string `json:"question" binding:"required"`
	PetType  string `json:"petType"`
}

// AdviceResponse is returned to the widget. Transcript is only set for voice questions.
type AdviceResponse struct {
	Advice     string `json:"advice"`
	Transcript string `json:"transcript,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}

// ImageEditRequest carries a data URL and the edit instruction.
type ImageEditRequest struct {
	Image  string `json:"image" binding:"required"`
	Prompt string `json:"prompt" binding:"required"`
}

// ImageEditResponse holds the edited image as a data URL and, when hosting is
// configured, its public URL.
type ImageEditResponse struct {
	Image     string `json:"image"`
	HostedURL string `json:"hostedUrl,omitempty"`
}
