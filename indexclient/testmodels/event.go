package testmodels

import "github.com/go-openapi/strfmt"

type Event struct {

	// Name of the event.
	// Required: true
	Name string `json:"name"`

	// Venue where the event takes place.
	Venue string `json:"venue,omitempty"`

	// Tags attached by editors.
	Tags []string `json:"tags,omitempty"`

	// Start of the event.
	// Format: date-time
	StartsAt *strfmt.DateTime `json:"startsAt,omitempty"`
}
