package service

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-api/internal/events"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/repository"
	"github.com/noah-isme/evalia-api/pkg/ai"
)

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) List(_ context.Context, filter repository.UserFilter) ([]models.User, error) {
	results := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			haystack := strings.ToLower(user.Email + " " + user.FirstName + " " + user.LastName)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		results = append(results, user)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryUserRepo) CreateWithProfile(_ context.Context, user *models.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) Delete(_ context.Context, id uint) error {
	delete(m.users, id)
	return nil
}

type memoryCourseRepo struct {
	courses map[uint]models.Course
	nextID  uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), nextID: 1}
}

func (m *memoryCourseRepo) List(_ context.Context) ([]models.Course, error) {
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		results = append(results, course)
	}
	return results, nil
}

func (m *memoryCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = m.nextID
	m.nextID++
	m.courses[course.ID] = *course
	return nil
}

type memoryExerciseRepo struct {
	exercises map[uint]models.Exercise
	nextID    uint
}

func newMemoryExerciseRepo() *memoryExerciseRepo {
	return &memoryExerciseRepo{exercises: make(map[uint]models.Exercise), nextID: 1}
}

func (m *memoryExerciseRepo) List(_ context.Context, filter repository.ExerciseFilter) ([]models.Exercise, error) {
	results := make([]models.Exercise, 0, len(m.exercises))
	for _, exercise := range m.exercises {
		if filter.CourseID != 0 && exercise.CourseID != filter.CourseID {
			continue
		}
		if filter.ProfessorID != 0 && exercise.ProfessorID != filter.ProfessorID {
			continue
		}
		if filter.VisibleOnly && !exercise.VisibleToStudents {
			continue
		}
		results = append(results, exercise)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryExerciseRepo) GetByID(_ context.Context, id uint) (models.Exercise, error) {
	exercise, ok := m.exercises[id]
	if !ok {
		return models.Exercise{}, gorm.ErrRecordNotFound
	}
	return exercise, nil
}

func (m *memoryExerciseRepo) Create(_ context.Context, exercise *models.Exercise) error {
	exercise.ID = m.nextID
	m.nextID++
	m.exercises[exercise.ID] = *exercise
	return nil
}

func (m *memoryExerciseRepo) Update(_ context.Context, exercise *models.Exercise) error {
	m.exercises[exercise.ID] = *exercise
	return nil
}

func (m *memoryExerciseRepo) Delete(_ context.Context, id uint) error {
	delete(m.exercises, id)
	return nil
}

func (m *memoryExerciseRepo) AttachFile(_ context.Context, exerciseID uint, file *models.FileRecord) error {
	exercise, ok := m.exercises[exerciseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if file.ID == 0 {
		file.ID = uint(len(exercise.Files) + 1000)
	}
	exercise.Files = append(exercise.Files, *file)
	m.exercises[exerciseID] = exercise
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	exercises   *memoryExerciseRepo
	nextID      uint
}

func newMemorySubmissionRepo(exercises *memoryExerciseRepo) *memorySubmissionRepo {
	return &memorySubmissionRepo{
		submissions: make(map[uint]models.Submission),
		exercises:   exercises,
		nextID:      1,
	}
}

func (m *memorySubmissionRepo) withExercise(submission models.Submission) models.Submission {
	if m.exercises != nil {
		if exercise, ok := m.exercises.exercises[submission.ExerciseID]; ok {
			submission.Exercise = exercise
		}
	}
	return submission
}

func (m *memorySubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if filter.ExerciseID != 0 && submission.ExerciseID != filter.ExerciseID {
			continue
		}
		if filter.StudentID != 0 && submission.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && submission.Status != filter.Status {
			continue
		}
		results = append(results, m.withExercise(submission))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return m.withExercise(submission), nil
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	submission.ID = m.nextID
	m.nextID++
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	submission, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.Status = status
	m.submissions[id] = submission
	return nil
}

func (m *memorySubmissionRepo) CountByStudent(_ context.Context, studentID uint, status string) (int64, error) {
	var total int64
	for _, submission := range m.submissions {
		if submission.StudentID != studentID {
			continue
		}
		if status != "" && submission.Status != status {
			continue
		}
		total++
	}
	return total, nil
}

func (m *memorySubmissionRepo) AverageScore(_ context.Context, studentID uint) (*float64, error) {
	var sum float64
	var count int
	for _, submission := range m.submissions {
		if submission.StudentID != studentID || submission.Correction == nil {
			continue
		}
		sum += submission.Correction.Score
		count++
	}
	if count == 0 {
		return nil, nil
	}
	average := sum / float64(count)
	return &average, nil
}

func (m *memorySubmissionRepo) ListRecentGraded(_ context.Context, studentID uint, limit int) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if submission.StudentID == studentID && submission.Status == models.SubmissionStatusGraded {
			results = append(results, m.withExercise(submission))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

type memoryCorrectionRepo struct {
	corrections map[uint]models.Correction
	submissions *memorySubmissionRepo
	nextID      uint
}

func newMemoryCorrectionRepo(submissions *memorySubmissionRepo) *memoryCorrectionRepo {
	return &memoryCorrectionRepo{
		corrections: make(map[uint]models.Correction),
		submissions: submissions,
		nextID:      1,
	}
}

func (m *memoryCorrectionRepo) GetByID(_ context.Context, id uint) (models.Correction, error) {
	correction, ok := m.corrections[id]
	if !ok {
		return models.Correction{}, gorm.ErrRecordNotFound
	}
	return correction, nil
}

func (m *memoryCorrectionRepo) GetBySubmission(_ context.Context, submissionID uint) (models.Correction, error) {
	for _, correction := range m.corrections {
		if correction.SubmissionID == submissionID {
			return correction, nil
		}
	}
	return models.Correction{}, gorm.ErrRecordNotFound
}

func (m *memoryCorrectionRepo) Create(_ context.Context, correction *models.Correction) error {
	correction.ID = m.nextID
	m.nextID++
	m.corrections[correction.ID] = *correction
	return nil
}

func (m *memoryCorrectionRepo) Update(_ context.Context, correction *models.Correction) error {
	m.corrections[correction.ID] = *correction
	return nil
}

func (m *memoryCorrectionRepo) CreateAndMarkGraded(ctx context.Context, correction *models.Correction) error {
	if err := m.Create(ctx, correction); err != nil {
		return err
	}
	if m.submissions != nil {
		if submission, ok := m.submissions.submissions[correction.SubmissionID]; ok {
			submission.Status = models.SubmissionStatusGraded
			submission.Correction = correction
			m.submissions.submissions[submission.ID] = submission
		}
	}
	return nil
}

type memoryReferenceRepo struct {
	references map[uint]models.ReferenceCorrection
	nextID     uint
}

func newMemoryReferenceRepo() *memoryReferenceRepo {
	return &memoryReferenceRepo{references: make(map[uint]models.ReferenceCorrection), nextID: 1}
}

func (m *memoryReferenceRepo) GetByExercise(_ context.Context, exerciseID uint) (models.ReferenceCorrection, error) {
	for _, reference := range m.references {
		if reference.ExerciseID == exerciseID {
			return reference, nil
		}
	}
	return models.ReferenceCorrection{}, gorm.ErrRecordNotFound
}

func (m *memoryReferenceRepo) Upsert(ctx context.Context, reference *models.ReferenceCorrection) error {
	if existing, err := m.GetByExercise(ctx, reference.ExerciseID); err == nil {
		reference.ID = existing.ID
		m.references[reference.ID] = *reference
		return nil
	}
	reference.ID = m.nextID
	m.nextID++
	m.references[reference.ID] = *reference
	return nil
}

func (m *memoryReferenceRepo) Delete(_ context.Context, exerciseID uint) error {
	for id, reference := range m.references {
		if reference.ExerciseID == exerciseID {
			delete(m.references, id)
		}
	}
	return nil
}

type memoryFileRepo struct {
	files  map[uint]models.FileRecord
	nextID uint
}

func newMemoryFileRepo() *memoryFileRepo {
	return &memoryFileRepo{files: make(map[uint]models.FileRecord), nextID: 1}
}

func (m *memoryFileRepo) GetByID(_ context.Context, id uint) (models.FileRecord, error) {
	file, ok := m.files[id]
	if !ok {
		return models.FileRecord{}, gorm.ErrRecordNotFound
	}
	return file, nil
}

func (m *memoryFileRepo) Create(_ context.Context, file *models.FileRecord) error {
	file.ID = m.nextID
	m.nextID++
	m.files[file.ID] = *file
	return nil
}

func (m *memoryFileRepo) Delete(_ context.Context, id uint) error {
	delete(m.files, id)
	return nil
}

type capturingPublisher struct {
	published []publishedEvent
}

type publishedEvent struct {
	subject string
	event   events.GradingEvent
}

func (p *capturingPublisher) Publish(subject string, event events.GradingEvent) {
	p.published = append(p.published, publishedEvent{subject: subject, event: event})
}

type fakeEnqueuer struct {
	queued []uint
	err    error
}

func (f *fakeEnqueuer) Enqueue(submissionID uint) error {
	if f.err != nil {
		return f.err
	}
	f.queued = append(f.queued, submissionID)
	return nil
}

type fakeEvaluator struct {
	result ai.EvaluationResult
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(_ context.Context, _ ai.EvaluationInput) (ai.EvaluationResult, error) {
	f.calls++
	if f.err != nil {
		return ai.EvaluationResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeEvaluator) ModelID() string { return "fake-model" }
