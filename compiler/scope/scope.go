package scope

type (
	// Table is a stack of lexical scopes. Bindings are kept in declaration
	// order and looked up from the end, so inner declarations shadow outer ones.
	Table[V any] struct {
		binds  []binding[V]
		counts []int
	}

	binding[V any] struct {
		Name string
		Val  V
	}
)

func New[V any]() *Table[V] {
	t := &Table[V]{}
	t.Push()

	return t
}

func (t *Table[V]) Push() {
	t.counts = append(t.counts, 0)
}

func (t *Table[V]) Pop() {
	l := len(t.counts) - 1
	if l < 0 {
		panic("scope: pop of empty table")
	}

	n := t.counts[l]

	t.binds = t.binds[:len(t.binds)-n]
	t.counts = t.counts[:l]
}

func (t *Table[V]) Declare(name string, v V) {
	if len(t.counts) == 0 {
		t.Push()
	}

	t.binds = append(t.binds, binding[V]{Name: name, Val: v})
	t.counts[len(t.counts)-1]++
}

func (t *Table[V]) Lookup(name string) (v V, ok bool) {
	for i := len(t.binds) - 1; i >= 0; i-- {
		if t.binds[i].Name == name {
			return t.binds[i].Val, true
		}
	}

	return v, false
}

// Local reports whether name is bound in the innermost scope.
func (t *Table[V]) Local(name string) bool {
	if len(t.counts) == 0 {
		return false
	}

	n := t.counts[len(t.counts)-1]

	for _, b := range t.binds[len(t.binds)-n:] {
		if b.Name == name {
			return true
		}
	}

	return false
}

func (t *Table[V]) Depth() int { return len(t.counts) }

func (t *Table[V]) Len() int { return len(t.binds) }
