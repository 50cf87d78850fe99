package progress

// UpsertProgressPayload represents the body to record a reading position.
type UpsertProgressPayload struct {
	Position string `json:"position" validate:"required,min=1,max=2000"`
}
