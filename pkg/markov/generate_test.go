package markov

import "testing"

// scriptedSource replays a fixed list of draws and records the bounds it was
// asked for. It wraps around when exhausted.
type scriptedSource struct {
	draws  []int
	i      int
	bounds []int
}

func (s *scriptedSource) Next(maxValue int) int {
	s.bounds = append(s.bounds, maxValue)
	if maxValue <= 0 {
		return 0
	}
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v % maxValue
}

// zeroSource always draws 0, so the walk always picks a successor when one
// exists and never picks termination unless it is the only option.
type zeroSource struct{}

func (zeroSource) Next(int) int { return 0 }

func collect(seq func(yield func(rune) bool), limit int) []rune {
	var out []rune
	seq(func(r rune) bool {
		out = append(out, r)
		return len(out) < limit
	})
	return out
}

func TestGenerateDeterministicWalk(t *testing.T) {
	// Order-1 chain on "abc": every context has exactly one successor, so a
	// zero-drawing source must reproduce the corpus and then stop at the
	// dead end after 'c'.
	c := newTestChain(t, 1)
	c.Add([]rune("abc"))

	got := collect(c.Generate(zeroSource{}), 10)
	if string(got) != "abc" {
		t.Errorf("Generate = %q; want \"abc\"", string(got))
	}
}

func TestGenerateFromContext(t *testing.T) {
	c := newTestChain(t, 1)
	c.Add([]rune("abc"))

	got := collect(c.GenerateFrom([]rune("a"), zeroSource{}), 10)
	if string(got) != "bc" {
		t.Errorf("GenerateFrom(a) = %q; want \"bc\"", string(got))
	}
}

func TestGenerateEmptyChain(t *testing.T) {
	c := newTestChain(t, 1)
	if got := collect(c.Generate(zeroSource{}), 10); len(got) != 0 {
		t.Errorf("Generate on empty chain emitted %q; want nothing", string(got))
	}
}

func TestGenerateStopsWhenNotPulled(t *testing.T) {
	// One pull performs exactly one draw; abandoning the walk mid-sequence
	// must not draw again.
	c := newTestChain(t, 1)
	c.Add([]rune("aaaa"))

	src := &scriptedSource{draws: []int{0}}
	_ = collect(c.Generate(src), 3)
	if len(src.bounds) != 3 {
		t.Errorf("walk performed %d draws for 3 pulls; want 3", len(src.bounds))
	}
}

func TestGenerateTerminationDraw(t *testing.T) {
	// Context with successors {a:2, b:1} and terminal weight 1: the draw is
	// over total+stop = 4, and a draw landing above the successor total must
	// terminate the walk.
	c := newTestChain(t, 0)
	empty := stateOf("")
	c.AddEdge(empty, 'a', 2)
	c.AddEdge(empty, 'b', 1)
	c.AddTerminal(empty, 1)

	src := &scriptedSource{draws: []int{3}} // v = 3+1 = 4 > total 3
	got := collect(c.Generate(src), 10)
	if len(got) != 0 {
		t.Errorf("walk emitted %q; want termination on first draw", string(got))
	}
	if len(src.bounds) != 1 || src.bounds[0] != 4 {
		t.Errorf("draw bounds = %v; want [4]", src.bounds)
	}
}

func TestGenerateWeightedSelectionExact(t *testing.T) {
	// Successors {a:2, b:1}, terminal 1. Sweeping the draw v over its full
	// range [1, 4] must select a twice, b once, and termination once,
	// regardless of map iteration order.
	c := newTestChain(t, 0)
	empty := stateOf("")
	c.AddEdge(empty, 'a', 2)
	c.AddEdge(empty, 'b', 1)
	c.AddTerminal(empty, 1)

	counts := make(map[rune]int)
	ended := 0
	for draw := 0; draw < 4; draw++ {
		src := &scriptedSource{draws: []int{draw}}
		first := collect(c.Generate(src), 1)
		if len(first) == 0 {
			ended++
		} else {
			counts[first[0]]++
		}
	}

	if counts['a'] != 2 || counts['b'] != 1 || ended != 1 {
		t.Errorf("outcomes over the full draw range = a:%d b:%d end:%d; want 2:1:1",
			counts['a'], counts['b'], ended)
	}
}

func TestGenerateEmpiricalDistribution(t *testing.T) {
	// The same 2:1:1 ratio must hold empirically under a seeded PRNG.
	c := newTestChain(t, 0)
	empty := stateOf("")
	c.AddEdge(empty, 'a', 2)
	c.AddEdge(empty, 'b', 1)
	c.AddTerminal(empty, 1)

	rnd := NewSeededRand(7)
	const trials = 40000
	counts := make(map[rune]int)
	ended := 0
	for i := 0; i < trials; i++ {
		first := collect(c.Generate(rnd), 1)
		if len(first) == 0 {
			ended++
		} else {
			counts[first[0]]++
		}
	}

	check := func(name string, got, want int) {
		// 2% of trials is far beyond any plausible deviation at this size.
		if diff := got - want; diff < -trials/50 || diff > trials/50 {
			t.Errorf("%s selected %d times; want about %d", name, got, want)
		}
	}
	check("a", counts['a'], trials/2)
	check("b", counts['b'], trials/4)
	check("termination", ended, trials/4)
}

func TestGenerateNilRandomPanics(t *testing.T) {
	c := newTestChain(t, 1)
	defer func() {
		if recover() == nil {
			t.Error("Generate(nil) did not panic")
		}
	}()
	_ = c.Generate(nil)
}
