package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/genotype"
)

// scriptedGenerator echoes "post by <name>" for posts, "reply by <name>" for
// replies, and answers engage queries with a fixed yes/no, per the tiny-run
// and engage-selectivity scenarios.
type scriptedGenerator struct {
	engageAnswer string
}

func (s scriptedGenerator) Generate(_ context.Context, systemPrompt, userPrompt string, _ backend.GenerateOptions) (string, error) {
	name := extractName(systemPrompt)
	switch {
	case strings.Contains(userPrompt, "Write a short social-media post"):
		return fmt.Sprintf("post by %s", name), nil
	case strings.Contains(userPrompt, "Reply to this post"):
		return fmt.Sprintf("reply by %s", name), nil
	case strings.Contains(userPrompt, "Would you reply"):
		return s.engageAnswer, nil
	default:
		return "", nil
	}
}

func extractName(systemPrompt string) string {
	const prefix = "You are "
	if !strings.HasPrefix(systemPrompt, prefix) {
		return "unknown"
	}
	rest := systemPrompt[len(prefix):]
	end := strings.IndexAny(rest, ",.\n")
	if end == -1 {
		return rest
	}
	return rest[:end]
}

func buildAgents(names ...string) []*Agent {
	agents := make([]*Agent, len(names))
	for i, name := range names {
		agents[i] = NewAgent(genotype.New(name))
	}
	return agents
}

func TestRunEpisodeEngageAlwaysYes(t *testing.T) {
	agents := buildAgents("Briar", "Soren")
	gen := scriptedGenerator{engageAnswer: "yes"}
	rng := rand.New(rand.NewSource(1))

	transcript, stats, err := RunEpisode(context.Background(), gen, agents, "weather", 1, rng, DefaultTimeouts(), PostAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.DegradedPosts+stats.DegradedReplies+stats.DegradedEngages != 0 {
		t.Errorf("expected no degraded calls, got %+v", stats)
	}

	posts := 0
	replies := 0
	for _, e := range transcript.Events {
		switch e.Type {
		case EventPost:
			posts++
			if e.Content != fmt.Sprintf("post by %s", e.Author) {
				t.Errorf("unexpected post content: %q", e.Content)
			}
		case EventReply:
			replies++
			if e.TargetAuthor == "" {
				t.Error("reply event missing target_author")
			}
		case EventPass:
			t.Error("did not expect any pass events when engage always answers yes")
		}
	}
	if posts != len(agents) {
		t.Errorf("expected %d posts, got %d", len(agents), posts)
	}
	if replies != len(agents) {
		t.Errorf("expected %d replies (1 round, always engage), got %d", len(agents), replies)
	}
}

func TestRunEpisodeEngageAlwaysNo(t *testing.T) {
	agents := buildAgents("A", "B", "C")
	gen := scriptedGenerator{engageAnswer: "no"}
	rng := rand.New(rand.NewSource(2))
	const rounds = 2

	transcript, _, err := RunEpisode(context.Background(), gen, agents, "news", rounds, rng, DefaultTimeouts(), PostAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posts, replies, passes := 0, 0, 0
	for _, e := range transcript.Events {
		switch e.Type {
		case EventPost:
			posts++
		case EventReply:
			replies++
		case EventPass:
			passes++
		}
	}
	if posts != len(agents) {
		t.Errorf("expected %d posts, got %d", len(agents), posts)
	}
	if replies != 0 {
		t.Errorf("expected 0 replies when engage always answers no, got %d", replies)
	}
	if passes != len(agents)*rounds {
		t.Errorf("expected %d passes, got %d", len(agents)*rounds, passes)
	}
}

// engageThenAlwaysYes answers "no" to the first engage query it sees, then
// "yes" to every one after, so the second round can only target something
// left in the feed by the first round.
type engageThenAlwaysYes struct {
	asked bool
}

func (s *engageThenAlwaysYes) Generate(_ context.Context, systemPrompt, userPrompt string, _ backend.GenerateOptions) (string, error) {
	name := extractName(systemPrompt)
	switch {
	case strings.Contains(userPrompt, "Write a short social-media post"):
		return fmt.Sprintf("post by %s", name), nil
	case strings.Contains(userPrompt, "Reply to this post"):
		return fmt.Sprintf("reply by %s", name), nil
	case strings.Contains(userPrompt, "Would you reply"):
		if !s.asked {
			s.asked = true
			return "no", nil
		}
		return "yes", nil
	default:
		return "", nil
	}
}

func TestRunEpisodePassEventsNeverBecomeReplyTargets(t *testing.T) {
	agents := buildAgents("A", "B", "C")
	gen := &engageThenAlwaysYes{}
	rng := rand.New(rand.NewSource(5))

	transcript, _, err := RunEpisode(context.Background(), gen, agents, "sports", 2, rng, DefaultTimeouts(), PostAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range transcript.Events {
		if e.Type == EventReply && e.ReplyTo == "" {
			t.Errorf("reply %+v has an empty ReplyTo, suggesting it targeted a pass event", e)
		}
	}
}

func TestRunEpisodePostHalfOnlyPostsFirstHalf(t *testing.T) {
	agents := buildAgents("A", "B", "C", "D", "E")
	gen := scriptedGenerator{engageAnswer: "no"}
	rng := rand.New(rand.NewSource(6))

	transcript, _, err := RunEpisode(context.Background(), gen, agents, "weather", 1, rng, DefaultTimeouts(), PostHalf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posters := make(map[string]bool)
	for _, e := range transcript.Events {
		if e.Type == EventPost {
			posters[e.Author] = true
		}
	}
	if len(posters) != 3 {
		t.Fatalf("expected 3 of 5 agents to post under post_mode=half, got %d (%v)", len(posters), posters)
	}
	for _, name := range []string{"A", "B", "C"} {
		if !posters[name] {
			t.Errorf("expected %s to post under post_mode=half, posters=%v", name, posters)
		}
	}
}

func TestRunEpisodeTranscriptIntegrity(t *testing.T) {
	agents := buildAgents("A", "B", "C", "D")
	gen := scriptedGenerator{engageAnswer: "yes"}
	rng := rand.New(rand.NewSource(3))

	transcript, _, err := RunEpisode(context.Background(), gen, agents, "sports", 3, rng, DefaultTimeouts(), PostAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seenAuthors := make(map[string]bool)
	for _, e := range transcript.Events {
		if e.Type == EventReply {
			if !seenAuthors[e.TargetAuthor] {
				t.Errorf("reply target_author %q not seen as an earlier author", e.TargetAuthor)
			}
		}
		if e.Type == EventPass && e.TargetAuthor == "" {
			// Only valid when the feed held no eligible entry for this agent,
			// which cannot happen here since every agent posts in phase 1.
			t.Errorf("unexpected empty target_author on pass event in a non-empty feed")
		}
		seenAuthors[e.Author] = true
	}
}
