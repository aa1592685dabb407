package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig defines configuration options for the OpenAI forecaster.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      *slog.Logger
}

// OpenAIForecaster implements Forecaster against the OpenAI chat completion API.
type OpenAIForecaster struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIForecaster builds a new forecaster using the provided configuration.
func NewOpenAIForecaster(cfg OpenAIConfig) (*OpenAIForecaster, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIForecaster{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Forecast sends the student's quiz history to OpenAI and parses the
// structured prediction out of the response.
func (f *OpenAIForecaster) Forecast(ctx context.Context, input ForecastInput) (ForecastResult, error) {
	request := openai.ChatCompletionRequest{
		Model:       f.cfg.Model,
		MaxTokens:   f.cfg.MaxTokens,
		Temperature: f.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: forecastSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildForecastPrompt(input),
			},
		},
	}

	resp, err := f.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return ForecastResult{}, fmt.Errorf("openai forecast: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ForecastResult{}, fmt.Errorf("no choices returned from openai")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseForecastResponse(content)
	if err != nil {
		f.logger.Warn("Failed to parse forecast response", "error", err)
		return ForecastResult{}, err
	}
	return result, nil
}

func forecastSystemPrompt() string {
	return "You are an educational analyst helping teachers spot students at risk. " +
		"Given a student's quiz history, respond with a single JSON object containing " +
		"predicted_grade (0-100), confidence (0-1), risk_level (LOW, MEDIUM, HIGH), " +
		"trend (IMPROVING, STABLE, DECLINING), strong_topics (array of strings), " +
		"weak_topics (array of strings), and recommendations (short actionable advice " +
		"for the teacher). Base every field on the data provided."
}

func buildForecastPrompt(input ForecastInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Student\n")
	builder.WriteString(fmt.Sprintf("%s (%s)\n", input.StudentName, input.GradeLevel))
	builder.WriteString("\n## Subject\n")
	builder.WriteString(input.SubjectName)
	builder.WriteString(fmt.Sprintf("\n\n## Current Average\n%.1f%% across %d quizzes\n", input.CurrentAverage, input.QuizCount))

	builder.WriteString("\n## Quiz Scores (oldest first)\n")
	for i, score := range input.RecentScores {
		builder.WriteString(fmt.Sprintf("%d. %.1f%%\n", i+1, score))
	}

	if len(input.TopicAccuracy) > 0 {
		topics := make([]string, 0, len(input.TopicAccuracy))
		for topic := range input.TopicAccuracy {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		builder.WriteString("\n## Accuracy by Topic\n")
		for _, topic := range topics {
			builder.WriteString(fmt.Sprintf("- %s: %.1f%%\n", topic, input.TopicAccuracy[topic]))
		}
	}

	builder.WriteString("\nReturn JSON only.")
	return builder.String()
}

// jsonObjectPattern pulls the outermost JSON object out of a response that
// may be wrapped in prose or a markdown fence.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func parseForecastResponse(content string) (ForecastResult, error) {
	match := jsonObjectPattern.FindString(content)
	if match == "" {
		return ForecastResult{}, fmt.Errorf("no JSON object in forecast response")
	}

	var result ForecastResult
	if err := json.Unmarshal([]byte(match), &result); err != nil {
		return ForecastResult{}, fmt.Errorf("parse forecast json: %w", err)
	}

	if result.PredictedGrade < 0 {
		result.PredictedGrade = 0
	}
	if result.PredictedGrade > 100 {
		result.PredictedGrade = 100
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	return result, nil
}
