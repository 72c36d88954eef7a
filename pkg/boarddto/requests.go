package boarddto

type CreateRequest struct {
	WhiteID string `json:"white_id,omitempty"`
	BlackID string `json:"black_id,omitempty"`
}

// InteractRequest reports one square click. File and Rank are both required;
// a nil coordinate is rejected instead of being read as 0.
type InteractRequest struct {
	PlayerID string `json:"player_id,omitempty"`
	File     *int   `json:"file"`
	Rank     *int   `json:"rank"`
}

// NewInteractRequest fills both coordinates.
func NewInteractRequest(playerID string, file, rank int) InteractRequest {
	return InteractRequest{PlayerID: playerID, File: &file, Rank: &rank}
}

type InteractResponse struct {
	Outcome string       `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message"`
	Session *SessionView `json:"session"`
}

// SeatRequest claims an open side. Color is "white" or "black".
type SeatRequest struct {
	PlayerID string `json:"player_id"`
	Color    string `json:"color"`
}

type ListResponse struct {
	Sessions []*SessionView `json:"sessions"`
}
