package genetic

import (
	"errors"
	"math/rand"
	"testing"
)

// evaluated builds an individual with a fixed fitness.
func evaluated[T any](genes []T, fitness float64) *Individual[T] {
	individual := NewIndividual(genes)
	individual.fitness = fitness
	individual.evaluated = true
	return individual
}

func TestSinglePointCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewIndividual([]rune("abcd"))
	b := NewIndividual([]rune("defg"))

	tests := []struct {
		cut      int
		expected string
	}{
		{2, "abfg"},
		{0, "defg"},
		{4, "abcd"},
	}

	for _, tt := range tests {
		child, err := SinglePointCrossover(rng, a, b, CrossoverConfig{CutPoints: []int{tt.cut}})
		if err != nil {
			t.Fatalf("Crossover at %d failed: %v", tt.cut, err)
		}
		if child.String() != tt.expected {
			t.Errorf("Crossover at %d = %q, expected %q", tt.cut, child.String(), tt.expected)
		}
		if child.Evaluated() {
			t.Errorf("Child at cut %d should be unevaluated", tt.cut)
		}
	}

	if a.String() != "abcd" || b.String() != "defg" {
		t.Errorf("Parents were modified: %q, %q", a.String(), b.String())
	}
}

func TestSinglePointCrossoverInvalidCut(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewIndividual([]rune("abcd"))
	b := NewIndividual([]rune("defg"))

	for _, cut := range []int{-1, 5} {
		_, err := SinglePointCrossover(rng, a, b, CrossoverConfig{CutPoints: []int{cut}})
		if !errors.Is(err, ErrConfig) {
			t.Errorf("Cut %d: expected config error, got %v", cut, err)
		}
	}
}

func TestCrossoverLengthGuard(t *testing.T) {
	for seed := int64(1); seed <= 100; seed++ {
		rng := rand.New(rand.NewSource(seed))
		lenA := rng.Intn(10) + 1
		lenB := lenA + rng.Intn(5) + 1

		factory := NewGeneFactory(func(r *rand.Rand) int { return r.Intn(100) })
		a := NewIndividual[int](nil)
		b := NewIndividual[int](nil)
		a.SetRand(rng)
		b.SetRand(rng)
		if err := a.Set(lenA, factory); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := b.Set(lenB, factory); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		_, err := a.Crossover(b, DefaultCrossoverConfig())
		if !errors.Is(err, ErrCrossover) {
			t.Fatalf("Seed %d: expected crossover error, got %v", seed, err)
		}
		if !errors.Is(err, ErrGenetics) {
			t.Fatalf("Seed %d: crossover error should match ErrGenetics", seed)
		}

		var crossoverErr *CrossoverError
		if !errors.As(err, &crossoverErr) || crossoverErr.LenA != lenA || crossoverErr.LenB != lenB {
			t.Fatalf("Seed %d: unexpected error details %v", seed, err)
		}

		if _, err := KPointCrossover(rng, a, b, DefaultCrossoverConfig()); !errors.Is(err, ErrCrossover) {
			t.Fatalf("Seed %d: expected k-point crossover error, got %v", seed, err)
		}
	}
}

func TestCrossoverInheritsConfiguration(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	factory := lowercase()

	a := NewIndividual([]rune("aaaa"))
	a.SetRand(rng)
	a.SetGeneFactory(factory)
	_ = a.SetMutationRate(0.7)
	b := NewIndividual([]rune("bbbb"))

	child, err := a.Crossover(b, CrossoverConfig{})
	if err != nil {
		t.Fatalf("Crossover failed: %v", err)
	}
	if child.MutationRate() != 0.7 {
		t.Errorf("Child mutation rate %f, expected 0.7", child.MutationRate())
	}
	if child.GeneFactory() != factory {
		t.Error("Child should inherit the gene factory")
	}
	if child.Rand() != rng {
		t.Error("Child should inherit the RNG")
	}
	if child.Len() != 4 {
		t.Errorf("Child has %d genes, expected 4", child.Len())
	}
}

func TestCrossoverAndMutateLeaveParentsUnchanged(t *testing.T) {
	a := NewIndividual([]rune("abcd"))
	a.SetGeneFactory(lowercase())
	_ = a.SetMutationRate(0.5)
	b := NewIndividual([]rune("wxyz"))

	if _, err := a.Crossover(b, CrossoverConfig{}); err != nil {
		t.Fatalf("Crossover failed: %v", err)
	}
	if _, err := a.Mutate(MutationConfig{}); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	if a.Rand() != nil || b.Rand() != nil {
		t.Error("Parents without an RNG should not be given one")
	}
	if string(a.Genes()) != "abcd" || string(b.Genes()) != "wxyz" {
		t.Errorf("Parents changed: %q, %q", string(a.Genes()), string(b.Genes()))
	}
}

func TestKPointCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewIndividual([]rune("abcdef"))
	b := NewIndividual([]rune("uvwxyz"))

	child, err := KPointCrossover(rng, a, b, CrossoverConfig{CutPoints: []int{4, 2}})
	if err != nil {
		t.Fatalf("KPointCrossover failed: %v", err)
	}
	if child.String() != "abwxef" {
		t.Errorf("KPointCrossover = %q, expected abwxef", child.String())
	}

	for i := 0; i < 50; i++ {
		child, err := KPointCrossover(rng, a, b, CrossoverConfig{Points: 3})
		if err != nil {
			t.Fatalf("KPointCrossover failed: %v", err)
		}
		genes := child.Genes()
		for pos, g := range genes {
			if g != a.genes[pos] && g != b.genes[pos] {
				t.Fatalf("Gene %c at %d comes from neither parent", g, pos)
			}
		}
	}

	if _, err := KPointCrossover(rng, a, b, CrossoverConfig{Points: 0}); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected config error for zero points, got %v", err)
	}
}

func TestSimpleMutationRetainAll(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	individual := NewIndividual([]rune("hello"))
	individual.SetRand(rng)
	individual.SetGeneFactory(NewGeneFactory(func(*rand.Rand) rune { return 'z' }))
	_ = individual.SetMutationRate(1.0)

	for i := 0; i < 20; i++ {
		mutated, err := individual.Mutate(DefaultMutationConfig())
		if err != nil {
			t.Fatalf("Mutate failed: %v", err)
		}
		if mutated.String() != "hello" {
			t.Fatalf("Rate 1.0 should keep every gene, got %q", mutated.String())
		}
		if mutated == individual {
			t.Fatal("Mutate must return a new individual")
		}
	}
}

func TestSimpleMutationReplaceAll(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	individual := NewIndividual([]rune("hello"))
	individual.SetRand(rng)
	individual.SetGeneFactory(NewGeneFactory(func(*rand.Rand) rune { return 'z' }))
	_ = individual.SetMutationRate(0.0)
	_ = individual.ComputeFitnessUsing(func([]rune) float64 { return 1 })

	mutated, err := individual.Mutate(DefaultMutationConfig())
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if mutated.String() != "zzzzz" {
		t.Errorf("Rate 0.0 should replace every gene, got %q", mutated.String())
	}
	if mutated.Evaluated() {
		t.Error("Mutated individual should be unevaluated")
	}
	if individual.String() != "hello" {
		t.Errorf("Original was modified: %q", individual.String())
	}
}

func TestSimpleMutationWithoutFactory(t *testing.T) {
	individual := NewIndividual([]rune("abc"))
	_, err := individual.Mutate(DefaultMutationConfig())
	if !errors.Is(err, ErrNoFactory) {
		t.Errorf("Expected ErrNoFactory, got %v", err)
	}
}

func TestGaussianMutationClamps(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	individual := NewIndividual([]float64{0, 0.5, -0.5, 1})
	_ = individual.SetMutationRate(0)

	cfg := MutationConfig{Sigma: 10, Low: -1, High: 1}
	for i := 0; i < 100; i++ {
		mutated, err := GaussianMutation(rng, individual, cfg)
		if err != nil {
			t.Fatalf("GaussianMutation failed: %v", err)
		}
		for _, v := range mutated.Genes() {
			if v < -1 || v > 1 {
				t.Fatalf("Value %f escaped the [-1, 1] bounds", v)
			}
		}
	}

	if _, err := GaussianMutation(rng, individual, MutationConfig{}); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected config error for zero sigma, got %v", err)
	}
}

func TestTournamentSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	population := Population[int]{
		evaluated([]int{1}, 1),
		evaluated([]int{2}, 2),
		evaluated([]int{3}, 3),
		evaluated([]int{4}, 4),
	}

	counts := make(map[float64]int)
	for i := 0; i < 1000; i++ {
		selected, err := TournamentSelection(rng, population, SelectionConfig{Matches: 5})
		if err != nil {
			t.Fatalf("TournamentSelection failed: %v", err)
		}
		for _, member := range population {
			if selected == member {
				t.Fatal("Selection must return a copy")
			}
		}
		counts[selected.fitness]++
	}
	if counts[4] <= counts[1] {
		t.Errorf("Best individual should win most tournaments, counts: %v", counts)
	}

	single, err := TournamentSelection(rng, population, SelectionConfig{Matches: 1})
	if err != nil || single == nil {
		t.Fatalf("Single-match tournament failed: %v", err)
	}
}

func TestTournamentSelectionErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if _, err := TournamentSelection(rng, Population[int]{}, DefaultSelectionConfig()); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("Expected ErrEmptyPopulation, got %v", err)
	}
	population := Population[int]{evaluated([]int{1}, 1)}
	if _, err := TournamentSelection(rng, population, SelectionConfig{Matches: 0}); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestRankSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	population := Population[int]{
		evaluated([]int{0}, 0),
		evaluated([]int{1}, 1),
	}

	// Full pressure on two members gives the worst a zero share.
	for i := 0; i < 100; i++ {
		selected, err := RankSelection(rng, population, SelectionConfig{Pressure: 2})
		if err != nil {
			t.Fatalf("RankSelection failed: %v", err)
		}
		if selected.fitness != 1 {
			t.Fatalf("Expected best individual, got fitness %f", selected.fitness)
		}
	}

	if _, err := RankSelection(rng, population, SelectionConfig{Pressure: 3}); !errors.Is(err, ErrConfig) {
		t.Errorf("Expected config error for pressure 3, got %v", err)
	}
	if _, err := RankSelection(rng, Population[int]{}, DefaultSelectionConfig()); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("Expected ErrEmptyPopulation, got %v", err)
	}
}

func TestRankProbabilitiesSumToOne(t *testing.T) {
	for _, n := range []int{2, 5, 40} {
		for _, s := range []float64{1, 1.5, 2} {
			var sum float64
			for rank := 0; rank < n; rank++ {
				sum += rankProbability(n, rank, s)
			}
			if sum < 0.999999 || sum > 1.000001 {
				t.Errorf("n=%d s=%v: probabilities sum to %f", n, s, sum)
			}
		}
	}
}

func TestPopulationSortAndStats(t *testing.T) {
	population := Population[int]{
		evaluated([]int{3}, 3),
		evaluated([]int{1}, 1),
		evaluated([]int{2}, 2),
	}

	population.Sort(false)
	if !population.IsSorted(false) {
		t.Fatal("Population should be sorted ascending")
	}
	if population.Fittest().fitness != 3 {
		t.Errorf("Fittest should be 3 when maximizing, got %f", population.Fittest().fitness)
	}

	stats := population.Stats(4, 0)
	if stats.Generation != 4 || stats.Best != 3 || stats.Worst != 1 || stats.Mean != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.StdDev != 1 {
		t.Errorf("Expected sample standard deviation 1, got %f", stats.StdDev)
	}

	population.Sort(true)
	if !population.IsSorted(true) {
		t.Fatal("Population should be sorted descending when minimizing")
	}
	if population.Fittest().fitness != 1 {
		t.Errorf("Fittest should be 1 when minimizing, got %f", population.Fittest().fitness)
	}

	var empty Population[int]
	if empty.Fittest() != nil {
		t.Error("Empty population should have no fittest")
	}
}
