package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddBotRequest is the request body for seating a bot opponent
type AddBotRequest struct {
	Strategy string `json:"strategy,omitempty"`
}

// MoveRequest is the request body for moving a checker. A To of 0 bears off.
type MoveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}
