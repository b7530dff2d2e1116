package agent

import (
	"context"
	"fmt"

	"assessment-pipeline/api/internal/types"
)

const GeneratorName = "GeneratorAgent"

const draftShape = `{
  "explanation": {
    "text": "Explanation of the topic (at least 50 characters)...",
    "grade": <grade number>
  },
  "mcqs": [
    {
      "question": "Question text...",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_index": <0-3>
    }
  ],
  "teacher_notes": {
    "learning_objective": "Students will be able to...",
    "common_misconceptions": ["Misconception 1", "Misconception 2"]
  }
}`

var generatorSystem = `You are an expert educational content creator. You write structured,
age-appropriate learning material and always follow the required JSON structure.

Return ONLY a JSON object of this shape:
` + draftShape + `

Rules:
1. Every MCQ has exactly 4 non-empty options.
2. correct_index is 0, 1, 2 or 3.
3. Provide between 3 and 5 MCQs.
4. explanation.text is at least 50 characters long.
5. teacher_notes.common_misconceptions has at least one entry.
6. Language complexity matches the grade level.`

// Generator writes the first draft for a request.
type Generator struct {
	r          *Runner
	maxRetries int
}

func NewGenerator(r *Runner, maxRetries int) *Generator {
	return &Generator{r: r, maxRetries: maxRetries}
}

func (g *Generator) Generate(ctx context.Context, req types.Request) (types.Draft, error) {
	return Execute[types.Request, types.Draft](ctx, g.r, generatorStage{}, req, g.maxRetries).Get()
}

type generatorStage struct{}

func (generatorStage) Name() string { return GeneratorName }

func (generatorStage) Prompts(req types.Request) (string, string) {
	user := fmt.Sprintf(`Create educational content for:

GRADE: %d
TOPIC: %s

GRADE GUIDANCE:
%s

Produce:
1. An explanation of 3-4 short paragraphs with vocabulary suited to the grade
2. 3-5 multiple choice questions that check understanding
3. Teacher notes with a learning objective and common misconceptions

Answer with the JSON object only.`, req.Grade, req.Topic, GradeGuidance(req.Grade))
	return generatorSystem, user
}

func (generatorStage) Check(d *types.Draft) error { return types.Validate(d) }

// GradeGuidance returns the register instructions for a grade band.
func GradeGuidance(grade int) string {
	switch {
	case grade <= 2:
		return `- Very simple words, one or two syllables where possible
- Short sentences of 5-8 words
- Concrete examples only
- No abstract concepts`
	case grade <= 4:
		return `- Simple vocabulary; define every new term
- Sentences of 8-12 words
- Everyday, real-world examples
- Basic cause and effect`
	case grade <= 6:
		return `- Moderate vocabulary with subject terms
- Varied sentence structure
- Examples and analogies
- First steps into abstract ideas`
	case grade <= 8:
		return `- Middle school academic vocabulary
- Complex sentences are fine
- Abstract reasoning
- More than one perspective`
	default:
		return `- Advanced academic vocabulary
- Complex sentence structures
- Abstract and theoretical concepts
- Expect critical analysis`
	}
}
