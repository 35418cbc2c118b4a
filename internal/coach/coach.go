// Package coach produces short written feedback on a synthesized training
// week. With an OpenAI API key configured the prose comes from a chat
// completion; without one a deterministic local summary stands in so the
// feature always works.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/myrjola/paceapp/internal/plan"
)

// Coach generates feedback prose for a training week.
type Coach struct {
	client  openai.Client
	enabled bool
	logger  *slog.Logger
}

// New creates a coach. An empty API key disables the model call and keeps
// only the local summary.
func New(apiKey string, logger *slog.Logger) *Coach {
	coach := &Coach{
		enabled: apiKey != "",
		logger:  logger,
	}
	if coach.enabled {
		coach.client = openai.NewClient(option.WithAPIKey(apiKey))
	}
	return coach
}

const systemPrompt = `You are an experienced distance-running coach reviewing
a subthreshold training week. Comment briefly on the balance between quality
sessions and easy volume, and give one concrete suggestion. Keep it under
120 words and write in plain encouraging prose.`

// Feedback returns coaching prose for a week.
func (c *Coach) Feedback(ctx context.Context, week plan.Week) (string, error) {
	if !c.enabled {
		return localSummary(week), nil
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(describeWeek(week)),
		},
		Model: openai.ChatModelGPT4o,
	})
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "chat completion failed", slog.Any("error", err))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return localSummary(week), nil
	}
	return completion.Choices[0].Message.Content, nil
}

// describeWeek renders the week as the prompt the model reviews.
func describeWeek(week plan.Week) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Weekly target %.1f km, planned %.1f km.\n", week.TargetDistanceKm, week.TotalDistanceKm)
	if week.ShortfallKm != 0 {
		fmt.Fprintf(&b, "Unallocated shortfall: %.1f km.\n", week.ShortfallKm)
	}
	for _, day := range week.Days {
		if day.Session == nil {
			fmt.Fprintf(&b, "%s: rest\n", day.Day)
			continue
		}
		fmt.Fprintf(&b, "%s: %s, %.1f km\n", day.Day, day.Session.Title, day.Session.DistanceKm)
	}

	return b.String()
}

// localSummary is the deterministic fallback used without an API key.
func localSummary(week plan.Week) string {
	var quality, easy, long int
	for _, day := range week.Days {
		if day.Session == nil {
			continue
		}
		switch day.Session.Type {
		case plan.WorkoutThreshold:
			quality++
		case plan.WorkoutLongRun:
			long++
		case plan.WorkoutEasy:
			easy++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This week totals %.1f km against a target of %.1f km", week.TotalDistanceKm, week.TargetDistanceKm)
	if week.ShortfallKm > 0 {
		fmt.Fprintf(&b, " (%.1f km could not be allocated)", week.ShortfallKm)
	}
	b.WriteString(". ")
	fmt.Fprintf(&b, "It holds %d quality session(s), %d easy run(s) and %d long run(s). ", quality, easy, long)
	if quality > 0 && easy == 0 {
		b.WriteString("Consider adding an easy day between the quality sessions to absorb the load.")
	} else {
		b.WriteString("Keep the easy days genuinely easy so the quality sessions stay productive.")
	}
	return b.String()
}
