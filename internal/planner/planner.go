// Package planner generates workout plans from onboarded preferences and
// logged history using an LLM chat completion.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"fitvoice/internal/domain"
)

const systemPrompt = `You are a strength and conditioning coach. Design a weekly workout plan
for the user based on their stated goal, experience, available training days,
equipment, and recent training history. Respond with JSON only, shaped as:
{"title": string, "days": [{"focus": string, "exercises": [{"name": string,
"sets": number, "reps": string, "notes": string}]}]}.
Produce exactly as many days as the user trains per week. Progress
conservatively from the history shown.`

// Config controls the chat completion request.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Generator implements ports.PlanGenerator on the OpenAI chat API.
type Generator struct {
	client *openai.Client
	cfg    Config
}

func New(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	return &Generator{client: openai.NewClient(cfg.APIKey), cfg: cfg}, nil
}

func (g *Generator) GeneratePlan(ctx context.Context, prefs domain.Preferences, history []domain.Workout) (domain.WorkoutPlan, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(prefs, history)},
		},
		Temperature: g.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return domain.WorkoutPlan{}, fmt.Errorf("plan completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.WorkoutPlan{}, errors.New("plan completion returned no choices")
	}

	return parsePlan(resp.Choices[0].Message.Content)
}

func buildUserPrompt(prefs domain.Preferences, history []domain.Workout) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Goal: %s\n", valueOr(prefs.Goal, "general fitness"))
	fmt.Fprintf(&b, "Experience: %s\n", valueOr(prefs.Experience, "beginner"))
	days := prefs.DaysPerWeek
	if days <= 0 {
		days = 3
	}
	fmt.Fprintf(&b, "Training days per week: %d\n", days)
	if len(prefs.Equipment) > 0 {
		fmt.Fprintf(&b, "Available equipment: %s\n", strings.Join(prefs.Equipment, ", "))
	} else {
		b.WriteString("Available equipment: bodyweight only\n")
	}

	if len(history) == 0 {
		b.WriteString("\nNo training history logged yet.\n")
		return b.String()
	}

	b.WriteString("\nRecent workouts, newest first:\n")
	for _, w := range history {
		fmt.Fprintf(&b, "- %s:", w.PerformedAt.Format("2006-01-02"))
		for _, e := range w.Entries {
			fmt.Fprintf(&b, " %s %dx%d", e.Name, e.Sets, e.Reps)
			if e.Weight > 0 {
				fmt.Fprintf(&b, "@%g%s", e.Weight, e.Unit)
			}
			b.WriteString(";")
		}
		if w.Notes != "" {
			fmt.Fprintf(&b, " notes: %s", w.Notes)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func parsePlan(content string) (domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		// Some models wrap JSON in a markdown fence despite the response format.
		stripped := stripCodeFence(content)
		if err := json.Unmarshal([]byte(stripped), &plan); err != nil {
			return domain.WorkoutPlan{}, fmt.Errorf("parse plan response: %w", err)
		}
	}
	if len(plan.Days) == 0 {
		return domain.WorkoutPlan{}, errors.New("plan response contained no days")
	}
	return plan, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func valueOr(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
