package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"assessment-pipeline/api/internal/types"
)

const TaggerName = "TaggerAgent"

// TagInput carries an approved draft. The orchestrator never tags anything else.
type TagInput struct {
	Request types.Request
	Draft   types.Draft
}

type Tagger struct {
	r          *Runner
	maxRetries int
}

func NewTagger(r *Runner, maxRetries int) *Tagger {
	return &Tagger{r: r, maxRetries: maxRetries}
}

func (t *Tagger) Tag(ctx context.Context, in TagInput) (types.TagResult, error) {
	return Execute[TagInput, types.TagResult](ctx, t.r, taggerStage{}, in, t.maxRetries).Get()
}

type taggerStage struct{}

func (taggerStage) Name() string { return TaggerName }

const taggerSystem = `You classify educational content so it can be found and organised.

Return ONLY a JSON object of this shape:
{
  "subject": "Mathematics|Science|English|History|...",
  "topic": "Specific topic name",
  "grade": <grade number>,
  "difficulty": "Easy|Medium|Hard",
  "content_type": ["Explanation", "Quiz", "Exercise", "Example"],
  "blooms_level": "Remembering|Understanding|Applying|Analyzing|Evaluating|Creating",
  "keywords": ["keyword1", "keyword2"]
}

Bloom's levels:
- Remembering: recall facts and basic concepts
- Understanding: explain ideas or concepts
- Applying: use information in new situations
- Analyzing: draw connections among ideas
- Evaluating: justify a decision
- Creating: produce new or original work

Pick the PRIMARY Bloom's level the content teaches or tests.`

func (taggerStage) Prompts(in TagInput) (string, string) {
	content, _ := json.MarshalIndent(in.Draft, "", "  ")
	user := fmt.Sprintf(`Classify this educational content.

REQUEST:
- Grade: %d
- Topic: %s

CONTENT:
%s`, in.Request.Grade, in.Request.Topic, content)
	return taggerSystem, user
}

func (taggerStage) Check(t *types.TagResult) error {
	t.ApplyDefaults()
	return types.Validate(t)
}
