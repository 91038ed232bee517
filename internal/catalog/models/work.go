package models

import (
	"strings"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// Work is one catalogued prior work and the party paid for its influence.
type Work struct {
	ID             id.WorkID         `json:"id"`
	Title          string            `json:"title"`
	Artist         string            `json:"artist"`
	RightsHolderID id.RightsHolderID `json:"rights_holder_id"`
}

// NewWork validates catalog input.
func NewWork(workID id.WorkID, title, artist string, holder id.RightsHolderID) (*Work, error) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "work title is required")
	}
	if artist == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "work artist is required")
	}
	return &Work{
		ID:             workID,
		Title:          title,
		Artist:         artist,
		RightsHolderID: holder,
	}, nil
}
