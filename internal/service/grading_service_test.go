package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evalia-api/internal/events"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/pkg/ai"
	"github.com/noah-isme/evalia-api/pkg/localstore"
)

type gradingFixture struct {
	exercises   *memoryExerciseRepo
	submissions *memorySubmissionRepo
	references  *memoryReferenceRepo
	corrections *memoryCorrectionRepo
	evaluator   *fakeEvaluator
	publisher   *capturingPublisher
	svc         GradingService
}

func newGradingFixture(t *testing.T, evaluator *fakeEvaluator) *gradingFixture {
	t.Helper()

	exercises := newMemoryExerciseRepo()
	submissions := newMemorySubmissionRepo(exercises)
	references := newMemoryReferenceRepo()
	corrections := newMemoryCorrectionRepo(submissions)
	publisher := &capturingPublisher{}

	store, err := localstore.New(localstore.Config{Root: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)

	svc := NewGradingService(submissions, references, corrections, store, evaluator, publisher, time.Minute, zerolog.Nop())

	return &gradingFixture{
		exercises:   exercises,
		submissions: submissions,
		references:  references,
		corrections: corrections,
		evaluator:   evaluator,
		publisher:   publisher,
		svc:         svc,
	}
}

func (f *gradingFixture) seedGradable(t *testing.T) uint {
	t.Helper()

	exercise := models.Exercise{Title: "Jointures", ExpectedFormat: "text", VisibleToStudents: true, ProfessorID: 10, CourseID: 1}
	require.NoError(t, f.exercises.Create(context.Background(), &exercise))

	require.NoError(t, f.references.Upsert(context.Background(), &models.ReferenceCorrection{
		ExerciseID:  exercise.ID,
		ProfessorID: 10,
		Content:     "SELECT id FROM users;",
	}))

	submission := models.Submission{
		ExerciseID: exercise.ID,
		StudentID:  20,
		Content:    "SELECT * FROM users;",
		Status:     models.SubmissionStatusPending,
		Type:       models.SubmissionTypeText,
	}
	require.NoError(t, f.submissions.Create(context.Background(), &submission))

	return submission.ID
}

func TestEvaluateAndRecordStoresCorrection(t *testing.T) {
	evaluator := &fakeEvaluator{result: ai.EvaluationResult{
		Note:        15.5,
		Commentaire: "Bonne requête, colonnes superflues.",
		Prompt:      "prompt",
		Raw:         map[string]interface{}{"note": 15.5},
	}}
	fixture := newGradingFixture(t, evaluator)
	submissionID := fixture.seedGradable(t)

	require.NoError(t, fixture.svc.EvaluateAndRecord(context.Background(), submissionID))

	correction, err := fixture.corrections.GetBySubmission(context.Background(), submissionID)
	require.NoError(t, err)
	require.Equal(t, 15.5, correction.Score)
	require.Equal(t, models.CorrectionProducedByAI, correction.ProducedBy)
	require.Equal(t, "fake-model", correction.AIModelID)
	require.False(t, correction.ProfessorAdjusted)
	require.NotEmpty(t, correction.RawDetails)

	submission, err := fixture.submissions.GetByID(context.Background(), submissionID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, submission.Status)

	require.Len(t, fixture.publisher.published, 1)
	require.Equal(t, events.SubjectSubmissionGraded, fixture.publisher.published[0].subject)
}

func TestEvaluateAndRecordUpstreamFailureMarksError(t *testing.T) {
	evaluator := &fakeEvaluator{err: errors.New("upstream unavailable")}
	fixture := newGradingFixture(t, evaluator)
	submissionID := fixture.seedGradable(t)

	err := fixture.svc.EvaluateAndRecord(context.Background(), submissionID)
	require.Error(t, err)

	submission, getErr := fixture.submissions.GetByID(context.Background(), submissionID)
	require.NoError(t, getErr)
	require.Equal(t, models.SubmissionStatusGradingError, submission.Status)

	require.Len(t, fixture.publisher.published, 1)
	require.Equal(t, events.SubjectGradingFailed, fixture.publisher.published[0].subject)
}

func TestEvaluateAndRecordMissingReference(t *testing.T) {
	fixture := newGradingFixture(t, &fakeEvaluator{})

	exercise := models.Exercise{Title: "Sans corrigé", ExpectedFormat: "text", VisibleToStudents: true, ProfessorID: 10, CourseID: 1}
	require.NoError(t, fixture.exercises.Create(context.Background(), &exercise))

	submission := models.Submission{
		ExerciseID: exercise.ID, StudentID: 20, Content: "réponse",
		Status: models.SubmissionStatusPending, Type: models.SubmissionTypeText,
	}
	require.NoError(t, fixture.submissions.Create(context.Background(), &submission))

	err := fixture.svc.EvaluateAndRecord(context.Background(), submission.ID)
	require.ErrorIs(t, err, ErrMissingReference)
	require.Zero(t, fixture.evaluator.calls)

	stored, getErr := fixture.submissions.GetByID(context.Background(), submission.ID)
	require.NoError(t, getErr)
	require.Equal(t, models.SubmissionStatusGradingError, stored.Status)
}

func TestEvaluateAndRecordSkipsAlreadyGraded(t *testing.T) {
	evaluator := &fakeEvaluator{result: ai.EvaluationResult{Note: 12, Commentaire: "ok"}}
	fixture := newGradingFixture(t, evaluator)
	submissionID := fixture.seedGradable(t)

	require.NoError(t, fixture.svc.EvaluateAndRecord(context.Background(), submissionID))
	require.NoError(t, fixture.svc.EvaluateAndRecord(context.Background(), submissionID))
	require.Equal(t, 1, evaluator.calls)
}

func TestEvaluateReturnsExistingCorrection(t *testing.T) {
	evaluator := &fakeEvaluator{result: ai.EvaluationResult{Note: 12, Commentaire: "ok"}}
	fixture := newGradingFixture(t, evaluator)
	submissionID := fixture.seedGradable(t)

	first, err := fixture.svc.Evaluate(context.Background(), submissionID)
	require.NoError(t, err)

	second, err := fixture.svc.Evaluate(context.Background(), submissionID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, evaluator.calls)
}

func TestEvaluateAndRecordPDFWithoutTextIsMissingData(t *testing.T) {
	fixture := newGradingFixture(t, &fakeEvaluator{})

	exercise := models.Exercise{Title: "PDF", ExpectedFormat: "pdf", VisibleToStudents: true, ProfessorID: 10, CourseID: 1}
	require.NoError(t, fixture.exercises.Create(context.Background(), &exercise))
	require.NoError(t, fixture.references.Upsert(context.Background(), &models.ReferenceCorrection{
		ExerciseID: exercise.ID, ProfessorID: 10, Content: "corrigé",
	}))

	fileID := uint(1)
	submission := models.Submission{
		ExerciseID: exercise.ID,
		StudentID:  20,
		Status:     models.SubmissionStatusPending,
		Type:       models.SubmissionTypeFile,
		FileID:     &fileID,
		File:       &models.FileRecord{MimeType: "application/pdf", StoragePath: "missing.pdf"},
	}
	require.NoError(t, fixture.submissions.Create(context.Background(), &submission))

	err := fixture.svc.EvaluateAndRecord(context.Background(), submission.ID)
	require.ErrorIs(t, err, ErrMissingGradingData)
}
