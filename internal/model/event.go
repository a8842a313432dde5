package model

type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at"`
	Active      bool   `json:"active"`

	Reward *Reward `json:"reward,omitempty"`
}

type Reward struct {
	ID              string  `json:"id"`
	Chain           string  `json:"chain"`
	TokenStandard   string  `json:"token_standard"`
	TokenAddress    string  `json:"token_address"`
	Amount          float64 `json:"amount"`
	TokenID         int64   `json:"token_id"`
	TotalSupply     int64   `json:"total_supply"`
	RemainingSupply int64   `json:"remaining_supply"`
}

// Create Event
type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at"`

	Chain         string  `json:"chain"`
	TokenStandard string  `json:"token_standard"`
	TokenAddress  string  `json:"token_address"`
	Amount        float64 `json:"amount"`
	TokenID       int64   `json:"token_id"`
	TotalSupply   int64   `json:"total_supply"`
	TokenIDs      []int64 `json:"token_ids"`
}

type CreateEventResponse struct {
	ID string `json:"id"`
}

// Get Event
type GetEventRequest struct {
	ID string `json:"id"`
}

type GetEventResponse Event

// Get Events
type GetEventsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetEventsResponse struct {
	Events []Event `json:"events"`
}

// Update Event
type UpdateEventRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at"`
	Active      *bool  `json:"active"`
}

type UpdateEventResponse struct{}

// Delete Event
type DeleteEventRequest struct {
	ID string `json:"id"`
}

type DeleteEventResponse struct{}
