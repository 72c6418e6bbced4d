package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/personaevolve/backend"
)

// Timeouts carries the per-call deadlines of §5: generation calls (posts and
// replies) default to 30s, engage decisions to 10s.
type Timeouts struct {
	Generate time.Duration
	Engage   time.Duration
}

// DefaultTimeouts returns §5's defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{Generate: 30 * time.Second, Engage: 10 * time.Second}
}

// maxConcurrentPosts bounds Phase 1 fan-out per §5's "one bound per backend."
const maxConcurrentPosts = 8

// Stats reports the degraded-call counters for one episode (§7: "every
// degraded call is counted in the generation stats").
type Stats struct {
	DegradedPosts   int
	DegradedReplies int
	DegradedEngages int
}

func (s *Stats) add(other Stats) {
	s.DegradedPosts += other.DegradedPosts
	s.DegradedReplies += other.DegradedReplies
	s.DegradedEngages += other.DegradedEngages
}

// PostAll and PostHalf are the §9-resolved values of EvolutionConfig's
// post_mode: PostAll has every agent post in Phase 1 (current architecture,
// default); PostHalf has only the first half post, for round-tripping
// against data generated under the source's earlier variant.
const (
	PostAll  = "all"
	PostHalf = "half"
)

// RunEpisode executes the protocol of §4.5 for one group: Phase 1 has agents
// post to topic per postMode (fanned out, reassembled in population order);
// Phase 2 repeats `rounds` engage/reply rounds sequentially, since each
// reply extends the shared feed that subsequent engage decisions read.
func RunEpisode(ctx context.Context, gen backend.Generator, agents []*Agent, topic string, rounds int, rng *rand.Rand, timeouts Timeouts, postMode string) (*Transcript, *Stats, error) {
	transcript := &Transcript{}
	feed := NewFeed()
	stats := &Stats{}

	posters := agents
	if postMode == PostHalf {
		posters = agents[:(len(agents)+1)/2]
	}

	postStats, err := runPostPhase(ctx, gen, posters, topic, timeouts, transcript, feed)
	if err != nil {
		return nil, nil, err
	}
	stats.add(*postStats)

	for round := 0; round < rounds; round++ {
		roundStats, err := runEngageRound(ctx, gen, agents, rng, timeouts, transcript, feed)
		if err != nil {
			return nil, nil, err
		}
		stats.add(*roundStats)
	}

	return transcript, stats, nil
}

func runPostPhase(ctx context.Context, gen backend.Generator, agents []*Agent, topic string, timeouts Timeouts, transcript *Transcript, feed *Feed) (*Stats, error) {
	posts := make([]TranscriptEvent, len(agents))
	degraded := make([]bool, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPosts)
	for i, agent := range agents {
		i, agent := i, agent
		g.Go(func() error {
			content, wasDegraded, err := generateWithFallback(gctx, gen, agent, timeouts.Generate,
				postSystemPrompt(agent), postUserPrompt(topic))
			if err != nil {
				return err
			}
			posts[i] = TranscriptEvent{Type: EventPost, Author: agent.Name(), Content: content}
			degraded[i] = wasDegraded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{}
	for i, agent := range agents {
		transcript.Events = append(transcript.Events, posts[i])
		feed.Append(posts[i])
		agent.Remember(posts[i])
		if degraded[i] {
			stats.DegradedPosts++
		}
	}
	return stats, nil
}

func runEngageRound(ctx context.Context, gen backend.Generator, agents []*Agent, rng *rand.Rand, timeouts Timeouts, transcript *Transcript, feed *Feed) (*Stats, error) {
	stats := &Stats{}
	order := shuffledIndices(len(agents), rng)

	for _, idx := range order {
		agent := agents[idx]
		snapshot := feed.Snapshot()
		entry, ok := RandomExcluding(snapshot, agent.Name(), rng)
		if !ok {
			// pass events are transcript-only (§4.5): the feed holds only
			// posts and replies, so a later agent can never select a pass
			// as an engage target.
			event := TranscriptEvent{Type: EventPass, Author: agent.Name()}
			transcript.Events = append(transcript.Events, event)
			agent.Remember(event)
			continue
		}

		willEngage, engageDegraded := askEngage(ctx, gen, agent, entry, timeouts.Engage)
		if engageDegraded {
			stats.DegradedEngages++
		}

		if !willEngage {
			event := TranscriptEvent{Type: EventPass, Author: agent.Name(), TargetAuthor: entry.Author}
			transcript.Events = append(transcript.Events, event)
			agent.Remember(event)
			continue
		}

		content, replyDegraded, err := generateWithFallback(ctx, gen, agent, timeouts.Generate,
			replySystemPrompt(agent), replyUserPrompt(entry))
		if err != nil {
			return nil, err
		}
		if replyDegraded {
			stats.DegradedReplies++
		}
		event := TranscriptEvent{
			Type:         EventReply,
			Author:       agent.Name(),
			TargetAuthor: entry.Author,
			Content:      content,
			ReplyTo:      entry.Content,
		}
		transcript.Events = append(transcript.Events, event)
		feed.Append(event)
		agent.Remember(event)
	}
	return stats, nil
}

func shuffledIndices(n int, rng *rand.Rand) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// generateWithFallback calls the backend with a timeout, and on an empty or
// erroring response records the synthetic placeholder of §4.5 instead of
// surfacing the failure.
func generateWithFallback(ctx context.Context, gen backend.Generator, agent *Agent, timeout time.Duration, systemPrompt, userPrompt string) (string, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out string
	err := backend.WithRetry(callCtx, backend.DefaultRetryConfig(), func() error {
		text, genErr := gen.Generate(callCtx, systemPrompt, userPrompt, backend.GenerateOptions{})
		if genErr != nil {
			return genErr
		}
		out = text
		return nil
	})
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	if err != nil || strings.TrimSpace(out) == "" {
		return fmt.Sprintf("[%s is thinking…]", agent.Name()), true, nil
	}
	return out, false, nil
}

// askEngage asks whether agent would reply to entry. A persistent backend
// failure is treated as "yes" (favoring the reply path so the episode keeps
// moving) and flagged degraded.
func askEngage(ctx context.Context, gen backend.Generator, agent *Agent, entry TranscriptEvent, timeout time.Duration) (bool, bool) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out string
	err := backend.WithRetry(callCtx, backend.DefaultRetryConfig(), func() error {
		text, genErr := gen.Generate(callCtx, agent.Phenotype.SystemPrompt, engageUserPrompt(entry), backend.GenerateOptions{})
		if genErr != nil {
			return genErr
		}
		out = text
		return nil
	})
	if err != nil {
		return true, true
	}
	return parseYesNo(out), false
}

// parseYesNo parses the engage answer case-insensitively; anything without a
// clear "yes" is "no", favoring selectivity (§4.5).
func parseYesNo(answer string) bool {
	return strings.Contains(strings.ToLower(answer), "yes")
}

func postSystemPrompt(agent *Agent) string {
	return agent.Phenotype.SystemPrompt + "\n\n" + agent.Phenotype.PolicyInstructions
}

func postUserPrompt(topic string) string {
	return "Write a short social-media post about: " + topic
}

func replySystemPrompt(agent *Agent) string {
	return agent.Phenotype.SystemPrompt + "\n\n" + agent.Phenotype.PolicyInstructions
}

func replyUserPrompt(entry TranscriptEvent) string {
	return fmt.Sprintf("Reply to this post by %s: %q", entry.Author, entry.Content)
}

func engageUserPrompt(entry TranscriptEvent) string {
	return fmt.Sprintf("Would you reply to this post by %s? Answer yes or no.\n\n%q", entry.Author, entry.Content)
}
