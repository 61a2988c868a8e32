package dto

type RegisterUserRequest struct {
	Username       string `json:"username"`
	CredentialHash string `json:"credentialHash"`
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	EndsAt      uint64 `json:"endsAt"`
}

type PlaceBetRequest struct {
	UserID     uint32 `json:"userId"`
	EventID    uint32 `json:"eventId"`
	Prediction bool   `json:"prediction"`
	Amount     uint64 `json:"amount"`
}

type ResolveEventRequest struct {
	CorrectAnswer bool  `json:"correctAnswer"`
	Confidence    uint8 `json:"confidence"`
}
