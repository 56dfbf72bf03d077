package domain

import "time"

// QuizStatus is the authoring lifecycle of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "Draft"
	QuizPublished QuizStatus = "Published"
)

// AttemptStatus is the lifecycle of a quiz attempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "In Progress"
	AttemptCompleted  AttemptStatus = "Completed"
	AttemptTimedOut   AttemptStatus = "Timed Out"
)

// Role names as carried in bearer tokens.
const (
	RoleStudent     = "Student"
	RoleAdmin       = "Admin"
	RoleExamManager = "Exam Manager"
)

// Unanswered marks an answer slot the student left empty. It never matches a correct answer.
const Unanswered = -1

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role string
}

// IsPrivileged reports whether the caller may see drafts, grading keys and other students' attempts.
func (p Principal) IsPrivileged() bool {
	return p.Role == RoleAdmin || p.Role == RoleExamManager
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Marks         int      `json:"marks"` // defaults to 1 if zero
}

// Quiz is an authored assessment attached to a course.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	CourseID     string     `json:"courseId"`
	TimeLimit    int        `json:"timeLimit"` // minutes
	TotalMarks   int        `json:"totalMarks"`
	PassingMarks int        `json:"passingMarks"`
	Status       QuizStatus `json:"status"`
	Questions    []Question `json:"questions"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// RecomputeTotalMarks defaults missing question marks and resets TotalMarks to their sum.
// Stores and services call it whenever the question set may have changed.
func (q *Quiz) RecomputeTotalMarks() {
	total := 0
	for i := range q.Questions {
		if q.Questions[i].Marks == 0 {
			q.Questions[i].Marks = 1
		}
		total += q.Questions[i].Marks
	}
	q.TotalMarks = total
}

// TimeLimitDuration converts the minute-based limit.
func (q Quiz) TimeLimitDuration() time.Duration {
	return time.Duration(q.TimeLimit) * time.Minute
}

// Course is the minimal catalog record quizzes and attempts refer to.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	StudentID  string    `json:"studentId"`
	CourseID   string    `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Answer is one graded response inside an attempt.
type Answer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption int  `json:"selectedOption"`
	IsCorrect      bool `json:"isCorrect"`
	Marks          int  `json:"marks"`
}

// Attempt is one student's run through a quiz.
type Attempt struct {
	ID           string        `json:"id"`
	QuizID       string        `json:"quizId"`
	CourseID     string        `json:"courseId"`
	StudentID    string        `json:"studentId"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      *time.Time    `json:"endTime,omitempty"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	Answers      []Answer      `json:"answers"`
	Score        int           `json:"score"`
	TotalMarks   int           `json:"totalMarks"`
	PassingMarks int           `json:"passingMarks"`
	Status       AttemptStatus `json:"status"`
	IsPassed     bool          `json:"isPassed"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AnswerSubmission is what a student sends for one question. A nil SelectedOption is unanswered.
type AnswerSubmission struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption *int `json:"selectedOption"`
}

// GradeSummary is returned alongside a submitted attempt.
type GradeSummary struct {
	IsPassed     bool `json:"isPassed"`
	Score        int  `json:"score"`
	TotalMarks   int  `json:"totalMarks"`
	PassingMarks int  `json:"passingMarks"`
}
