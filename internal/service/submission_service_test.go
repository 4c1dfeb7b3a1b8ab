package service

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/events"
	"github.com/noah-isme/evalia-api/internal/grading"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/pkg/localstore"
)

type submissionFixture struct {
	exercises   *memoryExerciseRepo
	submissions *memorySubmissionRepo
	queue       *fakeEnqueuer
	publisher   *capturingPublisher
	svc         SubmissionService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	exercises := newMemoryExerciseRepo()
	submissions := newMemorySubmissionRepo(exercises)
	queue := &fakeEnqueuer{}
	publisher := &capturingPublisher{}

	store, err := localstore.New(localstore.Config{Root: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)

	svc := NewSubmissionService(submissions, exercises, newMemoryFileRepo(), store, queue, publisher, validator.New(), 10, zerolog.Nop())

	return &submissionFixture{
		exercises:   exercises,
		submissions: submissions,
		queue:       queue,
		publisher:   publisher,
		svc:         svc,
	}
}

func (f *submissionFixture) seedExercise(t *testing.T, visible bool) uint {
	t.Helper()
	exercise := models.Exercise{
		Title:             "Jointures",
		ExpectedFormat:    "text",
		VisibleToStudents: visible,
		ProfessorID:       professorPrincipal.ID,
		CourseID:          1,
	}
	require.NoError(t, f.exercises.Create(context.Background(), &exercise))
	return exercise.ID
}

func TestSubmissionCreateTextQueuesGrading(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, true)

	response, err := fixture.svc.Create(context.Background(), studentPrincipal, dto.SubmissionCreateRequest{
		ExerciseID: exerciseID,
		Content:    "SELECT * FROM users;",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, response.Status)
	require.Equal(t, models.SubmissionTypeText, response.Type)
	require.Equal(t, studentPrincipal.ID, response.StudentID)

	require.Equal(t, []uint{response.ID}, fixture.queue.queued)
	require.Len(t, fixture.publisher.published, 1)
	require.Equal(t, events.SubjectSubmissionReceived, fixture.publisher.published[0].subject)
}

func TestSubmissionCreateRejectsNonStudents(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, true)

	_, err := fixture.svc.Create(context.Background(), professorPrincipal, dto.SubmissionCreateRequest{
		ExerciseID: exerciseID,
		Content:    "SELECT 1;",
	}, nil)
	require.ErrorIs(t, err, ErrNotStudent)
}

func TestSubmissionCreateRequiresContentOrFile(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, true)

	_, err := fixture.svc.Create(context.Background(), studentPrincipal, dto.SubmissionCreateRequest{
		ExerciseID: exerciseID,
		Content:    "   ",
	}, nil)
	require.ErrorIs(t, err, ErrEmptySubmission)
}

func TestSubmissionCreateHiddenExerciseLooksMissing(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, false)

	_, err := fixture.svc.Create(context.Background(), studentPrincipal, dto.SubmissionCreateRequest{
		ExerciseID: exerciseID,
		Content:    "SELECT 1;",
	}, nil)
	require.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestSubmissionCreateQueueFullMarksError(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, true)
	fixture.queue.err = grading.ErrQueueFull

	response, err := fixture.svc.Create(context.Background(), studentPrincipal, dto.SubmissionCreateRequest{
		ExerciseID: exerciseID,
		Content:    "SELECT 1;",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGradingError, response.Status)

	stored, err := fixture.submissions.GetByID(context.Background(), response.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGradingError, stored.Status)
}

type failingSubmissionRepo struct {
	*memorySubmissionRepo
	createErr error
}

func (r *failingSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.memorySubmissionRepo.Create(ctx, submission)
}

func countStoredFiles(t *testing.T, root string) int {
	t.Helper()
	count := 0
	require.NoError(t, filepath.WalkDir(root, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			count++
		}
		return nil
	}))
	return count
}

func TestSubmissionCreateFailureRemovesStoredFile(t *testing.T) {
	exercises := newMemoryExerciseRepo()
	submissions := &failingSubmissionRepo{
		memorySubmissionRepo: newMemorySubmissionRepo(exercises),
		createErr:            errors.New("insert failed"),
	}
	files := newMemoryFileRepo()

	root := t.TempDir()
	store, err := localstore.New(localstore.Config{Root: root}, zerolog.Nop())
	require.NoError(t, err)

	svc := NewSubmissionService(submissions, exercises, files, store, &fakeEnqueuer{}, &capturingPublisher{}, validator.New(), 10, zerolog.Nop())

	exercise := models.Exercise{
		Title: "Jointures", ExpectedFormat: "pdf", VisibleToStudents: true,
		ProfessorID: professorPrincipal.ID, CourseID: 1,
	}
	require.NoError(t, exercises.Create(context.Background(), &exercise))

	header := buildFileHeader(t, "reponse.pdf", pdfHeader)
	_, err = svc.Create(context.Background(), studentPrincipal, dto.SubmissionCreateRequest{ExerciseID: exercise.ID}, header)
	require.Error(t, err)

	// Neither the binary nor its metadata row survives the failed insert.
	require.Zero(t, countStoredFiles(t, root))
	require.Empty(t, files.files)
}

func TestSubmissionListScopesByRole(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, true)

	otherExercise := models.Exercise{
		Title: "Autre", ExpectedFormat: "text", VisibleToStudents: true,
		ProfessorID: otherProfessor.ID, CourseID: 1,
	}
	require.NoError(t, fixture.exercises.Create(context.Background(), &otherExercise))

	for _, seed := range []models.Submission{
		{ExerciseID: exerciseID, StudentID: studentPrincipal.ID, Status: models.SubmissionStatusPending, Type: models.SubmissionTypeText},
		{ExerciseID: exerciseID, StudentID: 99, Status: models.SubmissionStatusPending, Type: models.SubmissionTypeText},
		{ExerciseID: otherExercise.ID, StudentID: studentPrincipal.ID, Status: models.SubmissionStatusPending, Type: models.SubmissionTypeText},
	} {
		submission := seed
		require.NoError(t, fixture.submissions.Create(context.Background(), &submission))
	}

	mine, err := fixture.svc.List(context.Background(), studentPrincipal, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, submission := range mine {
		require.Equal(t, studentPrincipal.ID, submission.StudentID)
	}

	// Professors only see submissions for exercises they own.
	forProfessor, err := fixture.svc.List(context.Background(), professorPrincipal, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, forProfessor, 2)
	for _, submission := range forProfessor {
		require.Equal(t, exerciseID, submission.ExerciseID)
	}

	all, err := fixture.svc.List(context.Background(), adminPrincipal, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSubmissionGetScopesByRole(t *testing.T) {
	fixture := newSubmissionFixture(t)
	exerciseID := fixture.seedExercise(t, true)

	submission := models.Submission{
		ExerciseID: exerciseID, StudentID: studentPrincipal.ID,
		Status: models.SubmissionStatusPending, Type: models.SubmissionTypeText,
	}
	require.NoError(t, fixture.submissions.Create(context.Background(), &submission))

	_, err := fixture.svc.Get(context.Background(), studentPrincipal, submission.ID)
	require.NoError(t, err)

	_, err = fixture.svc.Get(context.Background(), professorPrincipal, submission.ID)
	require.NoError(t, err)

	_, err = fixture.svc.Get(context.Background(), otherProfessor, submission.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	other := authz.Principal{ID: 77, Role: models.RoleStudent}
	_, err = fixture.svc.Get(context.Background(), other, submission.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
