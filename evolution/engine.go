package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/diversity"
	"github.com/signalnine/personaevolve/fitness"
	"github.com/signalnine/personaevolve/genotype"
	"github.com/signalnine/personaevolve/operators"
	"github.com/signalnine/personaevolve/simulation"
	"github.com/signalnine/personaevolve/store"
)

// maxConcurrentGroups bounds episode fan-out per §5's "one bound per
// backend."
const maxConcurrentGroups = 8

// Engine is the EvolutionEngine of §4.7: it owns the live population for one
// generation, fans out simulation and evaluation, applies niching, persists
// results through Store, and reproduces the next population.
type Engine struct {
	Config Config
	Store  *store.Store

	Generator backend.Generator
	Embedder  backend.Embedder
	Evaluator fitness.Evaluator
	Mutator   operators.Mutator
	Pools     *genotype.Pools

	Rng *rand.Rand
	Log *slog.Logger

	// OnGeneration, if set, is called after generation gen finishes and is
	// persisted — a hook for progress display (§10.3), mirroring the
	// teacher's OnGenerationComplete callback.
	OnGeneration func(gen int)

	population        *Population
	lastDiversity     float64
	aggressiveMutator operators.Mutator
	fitnessHistory    []float64
}

// NewEngine constructs an Engine from its fully-resolved dependencies.
// Config is assumed already defaulted/validated/normalized.
func NewEngine(cfg Config, st *store.Store, gen backend.Generator, embedder backend.Embedder, pools *genotype.Pools, log *slog.Logger) *Engine {
	if pools == nil {
		pools = genotype.DefaultPools()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		Config:    cfg,
		Store:     st,
		Generator: gen,
		Embedder:  embedder,
		Evaluator: buildEvaluator(cfg, gen, embedder),
		Mutator:   buildMutator(cfg, gen, pools),
		Pools:     pools,
		Rng:       rand.New(rand.NewSource(cfg.RandomSeed)),
		Log:       log,
	}
}

// buildEvaluator selects the fitness.Evaluator variant named by
// cfg.EvaluatorKind (§9: "concrete variants ... selected once at engine
// construction from configuration").
func buildEvaluator(cfg Config, gen backend.Generator, embedder backend.Embedder) fitness.Evaluator {
	if cfg.EvaluatorKind == EvaluatorBackend {
		return fitness.NewBackendEvaluator(gen)
	}
	return fitness.NewHeuristicEvaluator(embedder)
}

// buildMutator selects the operators.Mutator variant named by
// cfg.MutatorKind, the same way. The backend variant always falls back to
// the pool mutator on failure (§4.2 "fails open"), so the pool mutator is
// built regardless and handed to it as Fallback.
func buildMutator(cfg Config, gen backend.Generator, pools *genotype.Pools) operators.Mutator {
	poolMutator := operators.NewPoolMutator(pools)
	if cfg.MutatorKind == MutatorBackend {
		return operators.NewBackendMutator(gen, poolMutator)
	}
	return poolMutator
}

// Run executes the generation loop of §4.7, resuming from the store's
// latest persisted generation if one exists. It always runs exactly
// cfg.Generations generations unless a fatal error occurs (§4.7
// "Termination").
func (e *Engine) Run(ctx context.Context, seeds []*genotype.Genotype) error {
	startGen, err := e.resumeOrInitialize(seeds)
	if err != nil {
		return err
	}
	if startGen > e.Config.Generations-1 {
		e.Log.Info("resume: nothing left to do", "start_generation", startGen, "generations", e.Config.Generations)
		return nil
	}

	for gen := startGen; gen < e.Config.Generations; gen++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := e.runGeneration(ctx, gen); err != nil {
			return fmt.Errorf("evolution: generation %d: %w", gen, err)
		}
		if e.OnGeneration != nil {
			e.OnGeneration(gen)
		}
	}
	return nil
}

// resumeOrInitialize implements §4.7's resume semantics: if the store
// reports existing generations 0..K, load generation K and resume at K+1;
// otherwise initialize a fresh population at generation 0.
func (e *Engine) resumeOrInitialize(seeds []*genotype.Genotype) (int, error) {
	latest, ok, err := e.Store.LatestGeneration()
	if err != nil {
		return 0, fmt.Errorf("evolution: checking for existing generations: %w", err)
	}
	if !ok {
		pop, err := e.initializePopulation(seeds)
		if err != nil {
			return 0, err
		}
		e.population = pop
		return 0, nil
	}

	genotypes, err := e.Store.LoadPopulation(latest)
	if err != nil {
		return 0, fmt.Errorf("evolution: loading generation %d to resume: %w", latest, err)
	}
	individuals := make([]*Individual, len(genotypes))
	for i, g := range genotypes {
		individuals[i] = NewIndividual(g)
	}
	e.population = NewPopulation(individuals, latest)
	return latest + 1, nil
}

// initializePopulation implements §4.7 step 1: truncate the seed list if
// it's large enough, else fill remaining slots by mutating uniformly-chosen
// seeds.
func (e *Engine) initializePopulation(seeds []*genotype.Genotype) (*Population, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("evolution: no seed personas provided")
	}
	if err := genotype.ValidateUniqueNames(seeds); err != nil {
		return nil, fmt.Errorf("evolution: %w", err)
	}

	size := e.Config.PopulationSize
	var chosen []*genotype.Genotype
	if len(seeds) >= size {
		chosen = seeds[:size]
	} else {
		chosen = append(chosen, seeds...)
		for len(chosen) < size {
			base := seeds[e.Rng.Intn(len(seeds))]
			mutated, err := e.Mutator.Mutate(context.Background(), base, e.Rng)
			if err != nil {
				return nil, fmt.Errorf("evolution: seeding population: %w", err)
			}
			mutated.Name = e.drawUniqueName(chosen)
			chosen = append(chosen, mutated)
		}
	}

	individuals := make([]*Individual, len(chosen))
	for i, g := range chosen {
		individuals[i] = NewIndividual(g)
	}
	return NewPopulation(individuals, 0), nil
}

// drawUniqueName draws a pool name not already used in existing.
func (e *Engine) drawUniqueName(existing []*genotype.Genotype) string {
	used := make(map[string]bool, len(existing))
	for _, g := range existing {
		used[g.Name] = true
	}
	candidates := e.Pools.Names
	for _, attempt := range candidates {
		if !used[attempt] {
			return attempt
		}
	}
	return fmt.Sprintf("persona-%d", e.Rng.Int63())
}

func (e *Engine) runGeneration(ctx context.Context, gen int) error {
	e.population.Generation = gen
	e.Log.Info("generation starting", "generation", gen, "population_size", len(e.population.Individuals))

	topics := GenerateTopics(ctx, e.Generator, topicCount(e.Config))
	groups := assembleGroups(e.population.Individuals, e.Config.GroupSize, e.Config.MergeRemainderGroup, e.Rng)
	groupTopics := assignTopics(groups, topics, e.Rng)

	transcripts, episodeStats, err := e.runEpisodes(ctx, groups, groupTopics)
	if err != nil {
		return err
	}

	if err := e.evaluatePopulation(ctx, groups, transcripts); err != nil {
		return err
	}

	e.aggregateRawFitness()
	ApplyNiching(e.population.Individuals, e.Config.Niching.Sigma, e.Config.Niching.Alpha)

	popDiversity, err := e.populationDiversity(ctx, transcripts)
	if err != nil {
		e.Log.Warn("population diversity computation failed", "generation", gen, "error", err)
	}
	e.lastDiversity = popDiversity

	agentDiversity, err := e.perAgentDiversity(ctx, transcripts)
	if err != nil {
		e.Log.Warn("per-agent diversity computation failed", "generation", gen, "error", err)
	}

	if err := e.persist(gen, transcripts, popDiversity, agentDiversity, episodeStats); err != nil {
		return err
	}

	if gen < e.Config.Generations-1 {
		e.population = e.reproduce()
	}
	return nil
}

func topicCount(cfg Config) int {
	if cfg.TopicCount > 0 {
		return cfg.TopicCount
	}
	return defaultTopicCount
}

// assembleGroups shuffles the population and partitions it into groups of
// exactly size, dropping the tail remainder unless mergeRemainder is set, in
// which case the remainder is appended to the last full group (§4.7 step 3).
func assembleGroups(individuals []*Individual, size int, mergeRemainder bool, rng *rand.Rand) [][]*Individual {
	if size < 1 {
		size = 1
	}
	shuffled := make([]*Individual, len(individuals))
	copy(shuffled, individuals)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var groups [][]*Individual
	for i := 0; i+size <= len(shuffled); i += size {
		groups = append(groups, shuffled[i:i+size])
	}
	remStart := (len(shuffled) / size) * size
	if remStart < len(shuffled) && len(groups) > 0 {
		if mergeRemainder {
			groups[len(groups)-1] = append(groups[len(groups)-1], shuffled[remStart:]...)
		}
	}
	return groups
}

func assignTopics(groups [][]*Individual, topics []string, rng *rand.Rand) []string {
	assigned := make([]string, len(groups))
	for i := range groups {
		if len(topics) == 0 {
			assigned[i] = ""
			continue
		}
		assigned[i] = topics[rng.Intn(len(topics))]
	}
	return assigned
}

// groupResult pairs a group's transcript with its episode's degraded-call
// stats.
type groupResult struct {
	transcript *simulation.Transcript
	stats      *simulation.Stats
}

// runEpisodes fans out one episode per group (§5 fan-out point 1).
func (e *Engine) runEpisodes(ctx context.Context, groups [][]*Individual, topics []string) ([]*simulation.Transcript, []*simulation.Stats, error) {
	results := make([]groupResult, len(groups))

	// Each group gets its own *rand.Rand seeded deterministically off the
	// engine's shared Rng, drawn here (sequentially, before fan-out) rather
	// than inside the goroutines: math/rand.Rand is not safe for concurrent
	// use, and §9 requires RNG draws to stay explicit and seedable so that a
	// fixed top-level seed reproduces byte-identical output regardless of
	// goroutine interleaving.
	groupSeeds := make([]int64, len(groups))
	for i := range groups {
		groupSeeds[i] = e.Rng.Int63()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentGroups)
	for i, group := range groups {
		i, group, topic := i, group, topics[i]
		groupRng := rand.New(rand.NewSource(groupSeeds[i]))
		g.Go(func() error {
			agents := make([]*simulation.Agent, len(group))
			for j, ind := range group {
				agents[j] = simulation.NewAgent(ind.Genotype)
			}
			transcript, stats, err := simulation.RunEpisode(gctx, e.Generator, agents, topic, e.Config.ReplyRounds, groupRng, simulation.DefaultTimeouts(), e.Config.PostMode)
			if err != nil {
				// Partial generation failure (§7): this group's
				// individuals get a nil transcript and zero raw
				// fitness later; the run continues.
				e.Log.Warn("episode failed", "group", i, "error", err)
				return nil
			}
			results[i] = groupResult{transcript: transcript, stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	transcripts := make([]*simulation.Transcript, 0, len(results))
	stats := make([]*simulation.Stats, 0, len(results))
	for _, r := range results {
		if r.transcript == nil {
			continue
		}
		transcripts = append(transcripts, r.transcript)
		stats = append(stats, r.stats)
	}
	return transcripts, stats, nil
}

// evaluatePopulation fans out one evaluator call per individual over the
// concatenation of transcripts it participated in (§5 fan-out point 3).
func (e *Engine) evaluatePopulation(ctx context.Context, groups [][]*Individual, transcripts []*simulation.Transcript) error {
	fitnessTranscripts := make([]fitness.Transcript, len(transcripts))
	for i, t := range transcripts {
		textsByAuthor := t.TextsByAuthor()
		counts := make(map[string]int, len(textsByAuthor))
		for name := range textsByAuthor {
			counts[name] = t.CountByAuthor(name)
		}
		fitnessTranscripts[i] = fitness.Transcript{
			TextsByAuthor: textsByAuthor,
			CountByAuthor: counts,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentGroups)
	for _, ind := range e.population.Individuals {
		ind := ind
		g.Go(func() error {
			participated := participatedTranscripts(ind.Genotype.Name, fitnessTranscripts)
			if len(participated) == 0 {
				ind.Evaluated = false
				return nil
			}
			scores, err := e.Evaluator.Evaluate(gctx, ind.Genotype.Name, participated)
			if err != nil {
				e.Log.Warn("evaluation failed", "individual", ind.Genotype.Name, "error", err)
				return nil
			}
			ind.Scores = scores
			ind.Evaluated = true
			return nil
		})
	}
	return g.Wait()
}

func participatedTranscripts(name string, transcripts []fitness.Transcript) []fitness.Transcript {
	var out []fitness.Transcript
	for _, t := range transcripts {
		if t.CountByAuthor[name] > 0 {
			out = append(out, t)
		}
	}
	return out
}

// aggregateRawFitness implements §4.7 step 5: raw = Σ wᵢ·scoreᵢ.
// Individuals with no transcript (unevaluated) get raw_fitness 0 (§7
// "partial generation failure... assign zero raw_fitness").
func (e *Engine) aggregateRawFitness() {
	weights := e.effectiveFitnessWeights()
	for _, ind := range e.population.Individuals {
		if !ind.Evaluated {
			ind.RawFitness = 0
			continue
		}
		total := 0.0
		for dimension, weight := range weights {
			if v, ok := ind.Scores.Get(dimension); ok {
				total += weight * v
			}
		}
		ind.RawFitness = clamp01(total)
	}
}

// effectiveFitnessWeights renormalizes Config.FitnessWeights down to the
// dimensions e.Evaluator actually populates (§9/§13: "treat missing
// dimensions as 0 and renormalize remaining weights"), so a config that
// weights an extension dimension the evaluator never produces doesn't
// silently deflate raw fitness. Evaluators that don't report their
// dimensions are assumed to populate every weighted dimension.
func (e *Engine) effectiveFitnessWeights() map[string]float64 {
	reporter, ok := e.Evaluator.(fitness.DimensionReporter)
	if !ok {
		return e.Config.FitnessWeights
	}
	active := make(map[string]bool, len(reporter.Dimensions()))
	for _, d := range reporter.Dimensions() {
		active[d] = true
	}

	activeTotal := 0.0
	for dimension, weight := range e.Config.FitnessWeights {
		if active[dimension] {
			activeTotal += weight
		}
	}
	if activeTotal <= 0 {
		return e.Config.FitnessWeights
	}

	out := make(map[string]float64, len(e.Config.FitnessWeights))
	for dimension, weight := range e.Config.FitnessWeights {
		if active[dimension] {
			out[dimension] = weight / activeTotal
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (e *Engine) populationDiversity(ctx context.Context, transcripts []*simulation.Transcript) (float64, error) {
	return diversity.Population(ctx, e.Embedder, mergeTranscriptTexts(transcripts))
}

// perAgentDiversity implements §4.4's per-agent output diversity measure for
// the generation_stats.jsonl "diversity" field, independent of whichever
// fitness.Evaluator is configured (a backend judge's own diversity opinion
// is a different thing from the textual/embedding measure this persists).
func (e *Engine) perAgentDiversity(ctx context.Context, transcripts []*simulation.Transcript) (map[string]float64, error) {
	return diversity.PerAgent(ctx, e.Embedder, mergeTranscriptTexts(transcripts))
}

func mergeTranscriptTexts(transcripts []*simulation.Transcript) map[string][]string {
	merged := make(map[string][]string)
	for _, t := range transcripts {
		for name, texts := range t.TextsByAuthor() {
			merged[name] = append(merged[name], texts...)
		}
	}
	return merged
}

// persist implements §4.7 step 7: write the population and transcripts
// files, then append the generation_stats.jsonl record.
func (e *Engine) persist(gen int, transcripts []*simulation.Transcript, popDiversity float64, agentDiversity map[string]float64, episodeStats []*simulation.Stats) error {
	if err := e.Store.SavePopulation(gen, e.population.Genotypes()); err != nil {
		return fmt.Errorf("evolution: persisting population: %w", err)
	}
	if err := e.Store.SaveTranscripts(gen, transcripts); err != nil {
		return fmt.Errorf("evolution: persisting transcripts: %w", err)
	}

	record := e.buildStatsRecord(gen, popDiversity, agentDiversity, episodeStats)
	if err := e.Store.AppendStats(record); err != nil {
		return fmt.Errorf("evolution: appending stats: %w", err)
	}
	return nil
}

func (e *Engine) buildStatsRecord(gen int, popDiversity float64, agentDiversity map[string]float64, episodeStats []*simulation.Stats) store.GenerationStats {
	mean := e.population.AverageFitness()
	min, max := e.population.FitnessBounds()

	plateau := e.computePlateauSignal(max)
	if plateau {
		e.Log.Info("fitness plateau detected", "generation", gen, "window", e.Config.PlateauWindow, "fitness_max", max)
	}

	degraded := 0
	for _, s := range episodeStats {
		if s == nil {
			continue
		}
		degraded += s.DegradedPosts + s.DegradedReplies + s.DegradedEngages
	}

	agents := make([]store.AgentStats, len(e.population.Individuals))
	for i, ind := range e.population.Individuals {
		// Prefer the independently computed textual diversity (§4.4
		// PerAgent) over the evaluator's own score, falling back to the
		// latter for an agent with no participating transcript.
		agentDiv, ok := agentDiversity[ind.Genotype.Name]
		if !ok {
			agentDiv = ind.Scores.Diversity
		}
		agents[i] = store.AgentStats{
			Name:                ind.Genotype.Name,
			Engagement:          ind.Scores.Engagement,
			ConversationQuality: ind.Scores.ConversationQuality,
			Diversity:           agentDiv,
			PersonaFidelity:     ind.Scores.PersonaFidelity,
			Safety:              ind.Scores.Safety,
			SocialIntelligence:  ind.Scores.SocialIntelligence,
			GoalAchievement:     ind.Scores.GoalAchievement,
			Novelty:             ind.Scores.Novelty,
			RawFitness:          ind.RawFitness,
			SharedFitness:       ind.SharedFitness,
			Degraded:            ind.Scores.Degraded,
		}
	}

	return store.GenerationStats{
		Timestamp:           time.Now().UTC(),
		Generation:          gen,
		PopulationSize:      len(e.population.Individuals),
		PopulationDiversity: popDiversity,
		FitnessMean:         mean,
		FitnessMax:          max,
		FitnessMin:          min,
		DegradedCalls:       degraded,
		PlateauSignal:       plateau,
		Agents:              agents,
	}
}

// computePlateauSignal implements §12's plateau-aware diagnostic, grounded
// on the teacher's CheckPlateau: over the trailing PlateauWindow
// generations' fitness_max (this generation's max included), a plateau is
// signaled when the fractional improvement from the oldest to the best of
// that window falls below PlateauImprovementThreshold. Unlike the teacher,
// this never stops the run — it only feeds the stats record (§4.7 "always
// runs exactly generations generations").
func (e *Engine) computePlateauSignal(currentMax float64) bool {
	e.fitnessHistory = append(e.fitnessHistory, currentMax)

	window := e.Config.PlateauWindow
	if window <= 0 || len(e.fitnessHistory) < window {
		return false
	}

	recent := e.fitnessHistory[len(e.fitnessHistory)-window:]
	oldest := recent[0]
	best := oldest
	for _, v := range recent {
		if v > best {
			best = v
		}
	}
	if oldest <= 0 {
		return false
	}
	improvement := (best - oldest) / oldest
	return improvement < e.Config.PlateauImprovementThreshold
}

// reproduce implements §4.7 step 8: elites carry over unchanged; remaining
// slots fill via tournament selection + crossover + optional mutation.
func (e *Engine) reproduce() *Population {
	elites := SelectElite(e.population, e.Config.EliteCount)

	next := make([]*Individual, 0, e.Config.PopulationSize)
	next = append(next, elites...)

	mutator := e.mutatorForGeneration()

	for len(next) < e.Config.PopulationSize {
		parentA := TournamentSelection(e.population, e.Config.TournamentSize, e.Rng)
		parentB := TournamentSelection(e.population, e.Config.TournamentSize, e.Rng)

		child := operators.Crossover(parentA.Genotype, parentB.Genotype, e.Pools, e.Rng)

		if e.Rng.Float64() < e.Config.MutationRate {
			mutated, err := mutator.Mutate(context.Background(), child, e.Rng)
			if err == nil {
				mutated.Name = child.Name
				child = mutated
			}
		}

		child.Name = e.nameChild(next, elites)
		next = append(next, NewIndividual(child))
	}

	return NewPopulation(next, e.population.Generation+1)
}

// mutatorForGeneration implements §12's diversity-crisis responsiveness: if
// the config sets a diversity_floor, an aggressive wrapper that applies the
// configured mutator (pool or backend) twice is used whenever the last
// computed population diversity falls below it.
func (e *Engine) mutatorForGeneration() operators.Mutator {
	if e.Config.DiversityFloor <= 0 || e.lastDiversity >= e.Config.DiversityFloor {
		return e.Mutator
	}
	if e.aggressiveMutator == nil {
		e.aggressiveMutator = operators.NewAggressiveMutator(e.Mutator)
	}
	e.Log.Info("diversity below floor, using aggressive mutation", "diversity", e.lastDiversity, "floor", e.Config.DiversityFloor)
	return e.aggressiveMutator
}

// nameChild resolves the provisional crossover/mutation name to a fresh
// unique one (§4.3: "placeholder; engine may later rename"), optionally via
// the backend nickname hook (§9), falling back to the pool-drawn name.
func (e *Engine) nameChild(existing []*Individual, elites []*Individual) string {
	used := make(map[string]bool, len(existing)+len(elites))
	for _, ind := range existing {
		used[ind.Genotype.Name] = true
	}

	if e.Config.NicknameHook {
		if name, ok := e.requestNickname(); ok && !used[name] {
			return name
		}
	}

	for _, candidate := range e.Pools.Names {
		if !used[candidate] {
			return candidate
		}
	}
	return fmt.Sprintf("persona-%d", e.Rng.Int63())
}

func (e *Engine) requestNickname() (string, bool) {
	out, err := e.Generator.Generate(context.Background(),
		"You invent short, distinct first names.", "Suggest one fresh first name, nothing else.",
		backend.GenerateOptions{})
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}
