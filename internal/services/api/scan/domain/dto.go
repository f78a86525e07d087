// Package domain holds DTOs for scan http contracts
package domain

import (
	"cibscope/internal/core/graph"
	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
)

// ScanInput is one scan request: the dataset inline plus optional knobs
type ScanInput struct {
	Posts []post.Post `json:"posts" validate:"required,min=1"`

	// Links replaces the built-in co-hashtag graph when present
	Links []graph.Link `json:"links,omitempty"`

	// Params wins over Preset; both absent means defaults
	Params *params.Params `json:"params,omitempty"`
	Preset int            `json:"preset,omitempty" validate:"omitempty,min=1,max=10"`

	// Seed pins community detection ordering for reproducible output
	Seed int64 `json:"seed,omitempty"`

	// Archive persists the report for later retrieval; default true
	Archive *bool `json:"archive,omitempty"`
}

// Resolve picks the effective parameter set for this request
func (in ScanInput) Resolve() (params.Params, error) {
	if in.Params != nil {
		return *in.Params, in.Params.Validate()
	}
	if in.Preset != 0 {
		return params.Preset(in.Preset)
	}
	return params.Default(), nil
}
