package evolution

import (
	"context"
	"strings"

	"github.com/signalnine/personaevolve/backend"
)

// defaultTopicCount is N in §4.7 step 2.
const defaultTopicCount = 5

// fallbackTopics ships with the system for use when the backend can't
// produce trending topics (§4.7 step 2: "a static fallback of 15 topics").
var fallbackTopics = []string{
	"remote work culture", "the future of public transit", "home cooking trends",
	"streaming service fatigue", "neighborhood gentrification", "AI in daily life",
	"four-day work weeks", "urban gardening", "the gig economy", "climate anxiety",
	"local news deserts", "generational money habits", "social media burnout",
	"the return of vinyl", "college affordability",
}

const topicsSystemPrompt = "List distinct, concise trending discussion topics. " +
	"Respond with one topic per line, nothing else."

// GenerateTopics asks the backend for n distinct trending topics. On
// failure, or if the backend returns fewer than n usable lines, the
// shortfall is filled from fallbackTopics.
func GenerateTopics(ctx context.Context, gen backend.Generator, n int) []string {
	if n <= 0 {
		n = defaultTopicCount
	}

	var topics []string
	out, err := gen.Generate(ctx, topicsSystemPrompt, "Give me trending discussion topics.", backend.GenerateOptions{})
	if err == nil {
		topics = parseTopicLines(out, n)
	}

	if len(topics) >= n {
		return topics[:n]
	}
	return fillFromFallback(topics, n)
}

func parseTopicLines(raw string, n int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func fillFromFallback(topics []string, n int) []string {
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		seen[t] = true
	}
	for _, t := range fallbackTopics {
		if len(topics) >= n {
			break
		}
		if !seen[t] {
			topics = append(topics, t)
			seen[t] = true
		}
	}
	return topics
}
