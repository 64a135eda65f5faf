package models

// Plan holds the concrete variant chosen for every pluggable model slot.
// It is derived deterministically from a HostProfile by the selection
// policy and threaded through every install call, never stored globally.
type Plan struct {
	// LanguageModel is the LLM tag served by the language runtime
	LanguageModel string `json:"languageModel" yaml:"language_model"`

	// ImageModel is the diffusion checkpoint used by the image generator
	ImageModel string `json:"imageModel" yaml:"image_model"`

	// VoiceModel is the speech synthesis voice identifier
	VoiceModel string `json:"voiceModel" yaml:"voice_model"`
}

// Complete reports whether every model slot has a variant assigned.
func (p Plan) Complete() bool {
	return p.LanguageModel != "" && p.ImageModel != "" && p.VoiceModel != ""
}
