// Package bt implements a small behavior tree with resumable composite
// nodes. Composites remember which child was running and resume there on
// the next tick, so a tree can drive one decision per game turn.
package bt

// Status is the result of ticking a node.
type Status int

const (
	// Running means the node needs more ticks to finish.
	Running Status = iota
	// Success means the node finished and achieved its goal.
	Success
	// Failure means the node finished without achieving its goal.
	Failure
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// Node is a behavior tree node operating on an environment E. Environments
// are typically pointers so nodes can mutate shared state.
type Node[E any] interface {
	// Tick advances the node by one step.
	Tick(env E) Status
	// Reset returns the node and its descendants to their initial state.
	Reset()
}

type lambdaNode[E any] struct {
	fn func(E) Status
}

// Lambda wraps a plain function as a leaf node. The closure owns any state
// it needs between ticks.
func Lambda[E any](fn func(E) Status) Node[E] {
	return &lambdaNode[E]{fn: fn}
}

func (l *lambdaNode[E]) Tick(env E) Status { return l.fn(env) }
func (l *lambdaNode[E]) Reset()            {}

// Condition wraps a predicate as a leaf that immediately succeeds or fails.
func Condition[E any](pred func(E) bool) Node[E] {
	return Lambda(func(env E) Status {
		if pred(env) {
			return Success
		}
		return Failure
	})
}

type runOrFailNode[E any] struct {
	fn      func(E) bool
	started bool
}

// RunOrFail attempts a one-shot action. If the action starts, the node
// reports Running for the tick it started on and Success on the next tick;
// if it cannot start, the node fails.
func RunOrFail[E any](fn func(E) bool) Node[E] {
	return &runOrFailNode[E]{fn: fn}
}

func (r *runOrFailNode[E]) Tick(env E) Status {
	if r.started {
		r.started = false
		return Success
	}
	if r.fn(env) {
		r.started = true
		return Running
	}
	return Failure
}

func (r *runOrFailNode[E]) Reset() { r.started = false }

type sequenceNode[E any] struct {
	children []Node[E]
	current  int
}

// Sequence ticks children in order. A running child is resumed on the next
// tick; a failing child fails the sequence and rewinds it to the start.
func Sequence[E any](children ...Node[E]) Node[E] {
	return &sequenceNode[E]{children: children}
}

func (s *sequenceNode[E]) Tick(env E) Status {
	for {
		switch s.children[s.current].Tick(env) {
		case Running:
			return Running
		case Failure:
			s.current = 0
			return Failure
		case Success:
			s.current++
			if s.current == len(s.children) {
				s.current = 0
				return Success
			}
		}
	}
}

func (s *sequenceNode[E]) Reset() {
	s.current = 0
	for _, child := range s.children {
		child.Reset()
	}
}

type selectorNode[E any] struct {
	children []Node[E]
	current  int
}

// Selector ticks children in order until one succeeds. A running child is
// resumed on the next tick; if every child fails, the selector fails.
func Selector[E any](children ...Node[E]) Node[E] {
	return &selectorNode[E]{children: children}
}

func (s *selectorNode[E]) Tick(env E) Status {
	for {
		switch s.children[s.current].Tick(env) {
		case Running:
			return Running
		case Success:
			s.current = 0
			return Success
		case Failure:
			s.current++
			if s.current == len(s.children) {
				s.current = 0
				return Failure
			}
		}
	}
}

func (s *selectorNode[E]) Reset() {
	s.current = 0
	for _, child := range s.children {
		child.Reset()
	}
}

type interruptNode[E any] struct {
	child Node[E]
	pred  func(E) bool
}

// Interrupt guards a subtree with a predicate checked before every tick.
// When the predicate fires the subtree is reset and the node fails, letting
// an enclosing selector fall through to a recovery branch.
func Interrupt[E any](child Node[E], pred func(E) bool) Node[E] {
	return &interruptNode[E]{child: child, pred: pred}
}

func (i *interruptNode[E]) Tick(env E) Status {
	if i.pred(env) {
		i.child.Reset()
		return Failure
	}
	return i.child.Tick(env)
}

func (i *interruptNode[E]) Reset() { i.child.Reset() }
