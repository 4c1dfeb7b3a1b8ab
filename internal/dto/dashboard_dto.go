package dto

// DashboardResponse aggregates a student's progress figures.
type DashboardResponse struct {
	TotalSubmissions  int64                `json:"total_submissions"`
	GradedSubmissions int64                `json:"graded_submissions"`
	PendingGrading    int64                `json:"pending_grading"`
	AverageScore      *float64             `json:"average_score"`
	RecentResults     []SubmissionResponse `json:"recent_results"`
	OpenExercises     []ExerciseResponse   `json:"open_exercises"`
}
