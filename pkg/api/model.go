package api

// Model is the public view of a registry entry, consumed by the front-end selector.
type Model struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	EndpointID    string `json:"endpoint_id"`
	ContentRating string `json:"content_rating"`
	Default       bool   `json:"default,omitempty"`
}

type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
