package types

// TagResult classifies an approved draft.
type TagResult struct {
	Subject     string   `json:"subject" validate:"required"`
	Topic       string   `json:"topic" validate:"required"`
	Grade       int      `json:"grade" validate:"min=1,max=12"`
	Difficulty  string   `json:"difficulty" validate:"oneof=Easy Medium Hard"`
	ContentType []string `json:"content_type" validate:"min=1,dive,oneof=Explanation Quiz Exercise Example"`
	BloomsLevel string   `json:"blooms_level" validate:"oneof=Remembering Understanding Applying Analyzing Evaluating Creating"`
	Keywords    []string `json:"keywords"`
}

// ApplyDefaults fills optional fields the model is allowed to omit.
func (t *TagResult) ApplyDefaults() {
	if t.Keywords == nil {
		t.Keywords = []string{}
	}
}
