package markov

import "testing"

// newTestChain builds a chain of the given order, failing the test on error.
func newTestChain(t *testing.T, order int) *Chain[rune] {
	t.Helper()
	c, err := NewChain[rune](order)
	if err != nil {
		t.Fatalf("NewChain(%d) error = %v", order, err)
	}
	return c
}

func stateOf(s string) ChainState[rune] {
	return NewChainState([]rune(s))
}

func TestNewChainRejectsNegativeOrder(t *testing.T) {
	if _, err := NewChain[rune](-1); err != ErrInvalidOrder {
		t.Errorf("NewChain(-1) error = %v; want ErrInvalidOrder", err)
	}
	for _, order := range []int{0, 1, 5} {
		if _, err := NewChain[rune](order); err != nil {
			t.Errorf("NewChain(%d) error = %v; want nil", order, err)
		}
	}
}

func TestChainFool(t *testing.T) {
	// Order-1 chain trained on "fool" with the default weight.
	c := newTestChain(t, 1)
	c.Add([]rune("fool"))

	next := c.NextStates(stateOf("o"))
	if len(next) != 2 || next['o'] != 1 || next['l'] != 1 {
		t.Errorf("NextStates(o) = %v; want map[l:1 o:1]", next)
	}

	if w := c.TerminalWeight(stateOf("l")); w != 1 {
		t.Errorf("TerminalWeight(l) = %d; want 1", w)
	}
	if w := c.TerminalWeight(stateOf("")); w != 0 {
		t.Errorf("TerminalWeight(empty) = %d; want 0", w)
	}
}

func TestChainTruncatesContext(t *testing.T) {
	// Only the most recent k symbols of a longer context are consulted.
	c := newTestChain(t, 2)
	c.Add([]rune("abcd"))

	long := c.NextStates(stateOf("xyzbc"))
	short := c.NextStates(stateOf("bc"))
	if len(long) != 1 || long['d'] != short['d'] {
		t.Errorf("NextStates with over-long context = %v; want %v", long, short)
	}
}

func TestChainUnknownContext(t *testing.T) {
	c := newTestChain(t, 1)
	c.Add([]rune("ab"))

	if next := c.NextStates(stateOf("z")); next != nil {
		t.Errorf("NextStates(unknown) = %v; want nil", next)
	}
	if w := c.TerminalWeight(stateOf("z")); w != 0 {
		t.Errorf("TerminalWeight(unknown) = %d; want 0", w)
	}
}

func TestChainNextStatesReturnsCopy(t *testing.T) {
	c := newTestChain(t, 1)
	c.Add([]rune("ab"))

	got := c.NextStates(stateOf("a"))
	got['b'] = 99
	if again := c.NextStates(stateOf("a")); again['b'] != 1 {
		t.Errorf("NextStates returned a live reference; weight now %d", again['b'])
	}
}

func TestChainInitialStates(t *testing.T) {
	c := newTestChain(t, 2)
	if init := c.InitialStates(); init != nil {
		t.Errorf("InitialStates on empty chain = %v; want nil", init)
	}

	c.Add([]rune("ab"))
	c.Add([]rune("cd"))
	init := c.InitialStates()
	if len(init) != 2 || init['a'] != 1 || init['c'] != 1 {
		t.Errorf("InitialStates = %v; want map[a:1 c:1]", init)
	}
}

func TestChainAddRemoveNetZero(t *testing.T) {
	c := newTestChain(t, 2)
	c.AddWeighted([]rune("abab"), 2)

	// Snapshot before the add under test.
	before := make(map[string]map[rune]int)
	for _, s := range c.States() {
		before[string(s.Items())] = c.NextStates(s)
	}

	c.AddWeighted([]rune("abc"), 3)
	c.AddWeighted([]rune("abc"), -3)

	states := c.States()
	after := make(map[string]map[rune]int)
	for _, s := range states {
		after[string(s.Items())] = c.NextStates(s)
	}

	if len(after) != len(before) {
		t.Fatalf("state count after un-train = %d; want %d (states %v)", len(after), len(before), states)
	}
	for key, row := range before {
		got := after[key]
		if len(got) != len(row) {
			t.Errorf("context %q row = %v; want %v", key, got, row)
			continue
		}
		for sym, w := range row {
			if got[sym] != w {
				t.Errorf("context %q weight of %q = %d; want %d", key, sym, got[sym], w)
			}
		}
	}

	// The row that existed solely because of the add must be gone entirely.
	if next := c.NextStates(stateOf("bc")); next != nil {
		t.Errorf("NextStates(bc) = %v; want nil after exact un-train", next)
	}
	if w := c.TerminalWeight(stateOf("bc")); w != 0 {
		t.Errorf("TerminalWeight(bc) = %d; want 0 after exact un-train", w)
	}
}

func TestChainAddEdgeClampAtZero(t *testing.T) {
	c := newTestChain(t, 1)
	a := stateOf("a")

	// Removing more weight than stored clamps to removal, not negative.
	c.AddEdge(a, 'b', 2)
	c.AddEdge(a, 'b', -5)
	if next := c.NextStates(a); next != nil {
		t.Errorf("NextStates after over-remove = %v; want nil", next)
	}

	// A negative add against nothing must not create a row.
	c.AddEdge(stateOf("q"), 'r', -1)
	if next := c.NextStates(stateOf("q")); next != nil {
		t.Errorf("negative add created a row: %v", next)
	}
	if got := len(c.States()); got != 0 {
		t.Errorf("States() has %d entries; want 0", got)
	}

	// Terminals follow the same clamp rule.
	c.AddTerminal(a, 1)
	c.AddTerminal(a, -4)
	if w := c.TerminalWeight(a); w != 0 {
		t.Errorf("TerminalWeight after over-remove = %d; want 0", w)
	}
}

func TestChainStates(t *testing.T) {
	c := newTestChain(t, 1)
	c.Add([]rune("ab"))
	// Windows with transitions: "", "a". Terminal-only window: "b".
	states := c.States()
	if len(states) != 3 {
		t.Fatalf("States() returned %d states; want 3: %v", len(states), states)
	}
	seen := make(map[string]bool)
	for _, s := range states {
		key := string(s.Items())
		if seen[key] {
			t.Errorf("state %q enumerated twice", key)
		}
		seen[key] = true
	}
	for _, want := range []string{"", "a", "b"} {
		if !seen[want] {
			t.Errorf("States() missing window %q", want)
		}
	}
}

func TestChainOrderZero(t *testing.T) {
	// Order 0 collapses every context to the empty window.
	c := newTestChain(t, 0)
	c.Add([]rune("ab"))

	next := c.NextStates(stateOf("anything"))
	if len(next) != 2 || next['a'] != 1 || next['b'] != 1 {
		t.Errorf("NextStates = %v; want map[a:1 b:1]", next)
	}
	if w := c.TerminalWeight(stateOf("")); w != 1 {
		t.Errorf("TerminalWeight(empty) = %d; want 1", w)
	}
}
