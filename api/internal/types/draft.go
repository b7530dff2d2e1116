package types

// Draft is the educational artifact produced by the generator and the refiner.
type Draft struct {
	Explanation  Explanation  `json:"explanation"`
	MCQs         []MCQ        `json:"mcqs" validate:"min=3,max=5,dive"`
	TeacherNotes TeacherNotes `json:"teacher_notes"`
}

type Explanation struct {
	Text  string `json:"text" validate:"min=50"`
	Grade int    `json:"grade" validate:"min=1,max=12"`
}

// MCQ is a multiple choice question with exactly four options.
type MCQ struct {
	Question     string   `json:"question" validate:"min=10"`
	Options      []string `json:"options" validate:"len=4,dive,nonblank"`
	CorrectIndex int      `json:"correct_index" validate:"min=0,max=3"`
}

type TeacherNotes struct {
	LearningObjective string   `json:"learning_objective" validate:"min=20"`
	Misconceptions    []string `json:"common_misconceptions" validate:"min=1,dive,nonblank"`
}
