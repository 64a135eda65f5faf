// Package selection maps a host profile to the concrete model variants
// installed for each pluggable slot.
package selection

import "evalgo.org/stackpilot/models"

// Built-in tiers, keyed on accelerator kind. Every tier fills all three
// model slots; no accelerator value maps to an incomplete plan.
var (
	nvidiaPlan = models.Plan{
		LanguageModel: "llama3.1:8b-instruct-q8_0",
		ImageModel:    "sd_xl_base_1.0.safetensors",
		VoiceModel:    "en_US-lessac-high",
	}

	amdPlan = models.Plan{
		LanguageModel: "llama3.1:8b-instruct-q4_K_M",
		ImageModel:    "sd_v1-5-pruned-emaonly.safetensors",
		VoiceModel:    "en_US-lessac-medium",
	}

	cpuPlan = models.Plan{
		LanguageModel: "llama3.2:3b-instruct-q4_K_M",
		ImageModel:    "sd-turbo.safetensors",
		VoiceModel:    "en_US-lessac-low",
	}
)

// Select returns the plan for a host profile. It is a pure, total
// function: every profile maps to a fully populated plan, with
// unrecognized accelerator kinds falling back to the CPU tier.
func Select(profile models.HostProfile) models.Plan {
	switch profile.Accelerator {
	case models.AccelNVIDIA:
		return nvidiaPlan
	case models.AccelAMD:
		return amdPlan
	default:
		return cpuPlan
	}
}
