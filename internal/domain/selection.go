package domain

// SavedSelection is the server-owned record of a user's last submission.
type SavedSelection struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SectorIDs    []int64   `json:"sectorIds"`
	AgreeToTerms bool      `json:"agreeToTerms"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// Sectors returns the saved sector IDs as a SelectionSet.
func (s *SavedSelection) Sectors() SelectionSet {
	return NewSelectionSet(s.SectorIDs...)
}

// SelectionRequest is the payload for both create and update.
type SelectionRequest struct {
	Name         string  `json:"name"`
	SectorIDs    []int64 `json:"sectorIds"`
	AgreeToTerms bool    `json:"agreeToTerms"`
}
