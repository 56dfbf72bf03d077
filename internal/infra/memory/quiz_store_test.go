package memory

import (
	"context"
	"testing"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"
)

func TestQuizStoreHidesDraftsFromPublishedLookup(t *testing.T) {
	ctx := context.Background()
	draft := sampleQuiz("quiz-draft", domain.QuizDraft, time.Unix(100, 0))
	store := NewQuizStore(draft)

	if _, err := store.FindPublishedByID(ctx, "quiz-draft"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found for draft, got %v", err)
	}
	if _, err := store.FindByID(ctx, "quiz-draft"); err != nil {
		t.Fatalf("find by id: %v", err)
	}
}

func TestQuizStoreFindFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	older := sampleQuiz("quiz-old", domain.QuizPublished, time.Unix(100, 0))
	newer := sampleQuiz("quiz-new", domain.QuizPublished, time.Unix(200, 0))
	draft := sampleQuiz("quiz-draft", domain.QuizDraft, time.Unix(300, 0))
	other := sampleQuiz("quiz-other", domain.QuizPublished, time.Unix(400, 0))
	other.CourseID = "course-2"
	store := NewQuizStore(older, newer, draft, other)

	got, err := store.Find(ctx, app.QuizFilter{CourseID: "course-1", PublishedOnly: true})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].ID != "quiz-new" || got[1].ID != "quiz-old" {
		t.Fatalf("expected [quiz-new quiz-old], got %+v", ids(got))
	}

	all, _ := store.Find(ctx, app.QuizFilter{})
	if len(all) != 4 {
		t.Fatalf("expected 4 quizzes unfiltered, got %d", len(all))
	}
}

func TestQuizStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore(sampleQuiz("quiz-1", domain.QuizPublished, time.Unix(100, 0)))

	q, _ := store.FindByID(ctx, "quiz-1")
	q.Questions[0].Options[0] = "tampered"

	again, _ := store.FindByID(ctx, "quiz-1")
	if again.Questions[0].Options[0] == "tampered" {
		t.Fatalf("store leaked internal slice")
	}
}

func TestQuizStoreRecomputesTotalMarks(t *testing.T) {
	ctx := context.Background()
	quiz := sampleQuiz("quiz-1", domain.QuizDraft, time.Unix(100, 0))
	quiz.TotalMarks = 99
	store := NewQuizStore()
	if err := store.Create(ctx, quiz); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := store.FindByID(ctx, "quiz-1")
	if got.TotalMarks != 3 {
		t.Fatalf("expected total 3, got %d", got.TotalMarks)
	}

	if err := store.Update(ctx, domain.Quiz{ID: "missing"}); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := store.Delete(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "quiz-1"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func sampleQuiz(id string, status domain.QuizStatus, created time.Time) domain.Quiz {
	return domain.Quiz{
		ID:           id,
		Title:        "Arithmetic",
		Description:  "Basics",
		CourseID:     "course-1",
		TimeLimit:    10,
		PassingMarks: 2,
		Status:       status,
		Questions: []domain.Question{
			{ID: "q1", Question: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: 1, Marks: 1},
			{ID: "q2", Question: "What is 3 * 3?", Options: []string{"9", "6"}, CorrectAnswer: 0, Marks: 2},
		},
		CreatedAt: created,
	}
}

func ids(quizzes []domain.Quiz) []string {
	out := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q.ID)
	}
	return out
}
