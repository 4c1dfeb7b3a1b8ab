package ai

import (
	"context"
	"errors"
)

// ErrMalformedReply indicates the model reply could not be parsed into the
// expected JSON shape.
var ErrMalformedReply = errors.New("malformed evaluation reply")

// EvaluationInput carries the two texts the model compares.
type EvaluationInput struct {
	StudentAnswer    string
	ReferenceContent string
}

// EvaluationResult is the structured feedback returned by the evaluator.
// Scores use the 0-20 scale with half-point granularity.
type EvaluationResult struct {
	Note               float64                `json:"note"`
	Commentaire        string                 `json:"commentaire"`
	PointsForts        []string               `json:"points_forts,omitempty"`
	PointsAmelioration []string               `json:"points_amelioration,omitempty"`
	Prompt             string                 `json:"-"`
	Raw                map[string]interface{} `json:"-"`
}

// Evaluator describes a model capable of grading a student answer against a
// reference correction.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error)
	ModelID() string
}
