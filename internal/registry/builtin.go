package registry

import "github.com/nulzo/studio-relay/internal/config"

// DefaultModelID is served when a request names no model. Its endpoint comes from RUNPOD_ENDPOINT_ID.
const DefaultModelID = "z-image-turbo"

// Builtin returns the shipped model table.
func Builtin(cfg *config.Config) []ModelEntry {
	return []ModelEntry{
		{ID: DefaultModelID, Provider: RunPod, EndpointID: cfg.RunPod.EndpointID, DisplayName: "Z-Image Turbo", ContentRating: RatingHigh},
		{ID: "pony-v6", Provider: RunPod, EndpointID: "4e7784vway3niq", DisplayName: "Pony Diffusion V6", ContentRating: RatingHigh},
		{ID: "abyssorangemix3", Provider: RunPod, EndpointID: "fehw5gl26qnnu4", DisplayName: "AbyssOrangeMix V3", ContentRating: RatingVeryHigh},
		{ID: "realistic-vision-v5", Provider: RunPod, EndpointID: "obmmh7nyfl7i4m", DisplayName: "Realistic Vision V5", ContentRating: RatingHigh},
		{ID: "flux-dev-uncensored", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "Flux Dev Uncensored", ContentRating: RatingMedium},
		{ID: "sdxl-turbo-uncensored", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "SDXL Turbo Uncensored", ContentRating: RatingMedium},
		{ID: "chilloutmix", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "ChilloutMix", ContentRating: RatingVeryHigh},
		{ID: "deliberate-v3", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "Deliberate V3", ContentRating: RatingHigh},
		{ID: "dreamshaper-v8", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "DreamShaper V8", ContentRating: RatingHigh},
		{ID: "epicrealism-v5", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "EpicRealism V5", ContentRating: RatingHigh},
		{ID: "juggernaut-xl-v9", Provider: RunPod, EndpointID: "4znje87s0eaktv", DisplayName: "Juggernaut XL V9", ContentRating: RatingHigh},
		{ID: "flux-2-pro", Provider: OpenRouter, EndpointID: cfg.OpenRouter.Model, DisplayName: "FLUX.2 Pro", ContentRating: RatingLow},
	}
}
