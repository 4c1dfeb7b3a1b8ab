package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evalia",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evalia",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"model"})
)

// replySchema pins the minimum contract of the model reply: note and
// commentaire must be present, the lists are optional.
const replySchemaJSON = `{
	"type": "object",
	"required": ["note", "commentaire"],
	"properties": {
		"note": {"type": "number"},
		"commentaire": {"type": "string"},
		"points_forts": {"type": "array", "items": {"type": "string"}},
		"points_amelioration": {"type": "array", "items": {"type": "string"}}
	}
}`

var replySchema = jsonschema.MustCompileString("reply.json", replySchemaJSON)

// ChatConfig defines configuration options for the chat-completion evaluator.
// BaseURL may point at any OpenAI-compatible endpoint (DeepSeek by default).
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// ChatEvaluator implements Evaluator against an OpenAI-compatible chat
// completion API.
type ChatEvaluator struct {
	client *openai.Client
	cfg    ChatConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewChatEvaluator builds a new evaluator using the provided configuration.
func NewChatEvaluator(cfg ChatConfig) (*ChatEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &ChatEvaluator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/evalia-api/pkg/ai"),
		logger: logger,
	}, nil
}

// ModelID returns the configured model identifier for audit records.
func (e *ChatEvaluator) ModelID() string {
	return e.cfg.Model
}

// Evaluate sends the grading prompt to the completion endpoint and parses
// the constrained JSON reply.
func (e *ChatEvaluator) Evaluate(parent context.Context, input EvaluationInput) (EvaluationResult, error) {
	ctx, span := e.tracer.Start(parent, "ai.evaluate", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
	))
	defer span.End()

	prompt := BuildPrompt(input)
	request := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EvaluationResult{}, fmt.Errorf("ai evaluate: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned: %w", ErrMalformedReply)
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EvaluationResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := ParseReply(content)
	if err != nil {
		aiFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EvaluationResult{}, err
	}

	result.Prompt = prompt
	result.Raw = map[string]interface{}{
		"content": content,
		"usage":   resp.Usage,
	}

	span.SetAttributes(attribute.Float64("ai.note", result.Note))

	return result, nil
}

// BuildPrompt assembles the fixed grading prompt embedding both texts
// verbatim.
func BuildPrompt(input EvaluationInput) string {
	builder := strings.Builder{}
	builder.WriteString("En tant qu'expert en évaluation pédagogique, analysez cette réponse d'étudiant comparée à la correction de référence.\n\n")
	builder.WriteString("**Réponse étudiante**:\n")
	builder.WriteString(input.StudentAnswer)
	builder.WriteString("\n\n**Correction de référence**:\n")
	builder.WriteString(input.ReferenceContent)
	builder.WriteString("\n\nGénérez un feedback JSON avec :\n")
	builder.WriteString("- \"note\" (sur 20, avec demi-points possibles)\n")
	builder.WriteString("- \"commentaire\" (en français, 3-5 lignes max)\n")
	builder.WriteString("- \"points_forts\" (liste)\n")
	builder.WriteString("- \"points_amelioration\" (liste)\n\n")
	builder.WriteString("Exemple de format :\n")
	builder.WriteString(`{"note": 15.5, "commentaire": "...", "points_forts": ["...", "..."], "points_amelioration": ["...", "..."]}`)
	return builder.String()
}

// ParseReply validates and decodes a model reply. The note is clamped to
// [0, 20] and rounded to the nearest half point; models occasionally return
// out-of-range or overly precise values.
func ParseReply(content string) (EvaluationResult, error) {
	var document interface{}
	if err := json.Unmarshal([]byte(content), &document); err != nil {
		return EvaluationResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	if err := replySchema.Validate(document); err != nil {
		return EvaluationResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var result EvaluationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return EvaluationResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	result.Note = ClampNote(result.Note)

	return result, nil
}

// ClampNote bounds a score to the 0-20 grading scale and snaps it to
// half-point granularity.
func ClampNote(note float64) float64 {
	if note < 0 {
		return 0
	}
	if note > 20 {
		return 20
	}
	return math.Round(note*2) / 2
}
