package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewQuizCode(t *testing.T) {
	code := NewQuizCode()

	assert.Len(t, code, 10)
	assert.True(t, strings.HasPrefix(code, "QZ"))
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestNewQuizCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewQuizCode()
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestQuizIsOpenAt(t *testing.T) {
	open := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	closeTime := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	quiz := &Quiz{OpenTime: open, CloseTime: closeTime}

	assert.False(t, quiz.IsOpenAt(open.Add(-time.Second)))
	assert.True(t, quiz.IsOpenAt(open))
	assert.True(t, quiz.IsOpenAt(open.Add(4*time.Hour)))
	assert.True(t, quiz.IsOpenAt(closeTime))
	assert.False(t, quiz.IsOpenAt(closeTime.Add(time.Second)))
}

func TestQuestionTypeIsObjective(t *testing.T) {
	assert.True(t, MultipleChoice.IsObjective())
	assert.True(t, TrueFalse.IsObjective())
	assert.False(t, ShortAnswer.IsObjective())
}

func TestCorrectChoice(t *testing.T) {
	question := &QuizQuestion{
		Choices: []QuizChoice{
			{ID: 1, ChoiceText: "Manila", IsCorrect: false},
			{ID: 2, ChoiceText: "Quezon City", IsCorrect: true},
			{ID: 3, ChoiceText: "Cebu", IsCorrect: false},
		},
	}

	choice := question.CorrectChoice()
	assert.NotNil(t, choice)
	assert.Equal(t, uint(2), choice.ID)
}

func TestCorrectChoice_NoneMarked(t *testing.T) {
	question := &QuizQuestion{
		Choices: []QuizChoice{{ID: 1}, {ID: 2}},
	}
	assert.Nil(t, question.CorrectChoice())
}

func TestAttemptIsFinished(t *testing.T) {
	assert.False(t, (&QuizAttempt{Status: AttemptInProgress}).IsFinished())
	assert.True(t, (&QuizAttempt{Status: AttemptSubmitted}).IsFinished())
	assert.True(t, (&QuizAttempt{Status: AttemptGraded}).IsFinished())
}

func TestAnswerIsUngraded(t *testing.T) {
	wrong := false
	assert.True(t, (&QuizAnswer{}).IsUngraded())
	assert.False(t, (&QuizAnswer{IsCorrect: &wrong}).IsUngraded())
}

func TestTopicPerformanceRecalculate(t *testing.T) {
	perf := &QuizTopicPerformance{TotalQuestions: 8, CorrectAnswers: 6}
	perf.Recalculate()
	assert.InDelta(t, 75.0, perf.AccuracyPercentage, 0.0001)

	perf = &QuizTopicPerformance{}
	perf.Recalculate()
	assert.Equal(t, 0.0, perf.AccuracyPercentage)
}
