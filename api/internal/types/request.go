package types

// Request is the input of one pipeline run. It is never mutated once a run starts.
type Request struct {
	Grade int    `json:"grade" validate:"min=1,max=12"`
	Topic string `json:"topic" validate:"min=3,max=200"`
}
