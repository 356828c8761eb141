package autograd

import (
	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/tensor"
)

// nodeOpKind is the closed op tag for a scalar tape node.
type nodeOpKind uint8

const (
	opLeaf nodeOpKind = iota
	opAdd
	opSub
	opMul
	opDiv
)

type node struct {
	tensor       tensor.ScalarTensor
	requiresGrad bool
	op           nodeOpKind
	lhs, rhs     int
}

// OperationEvent mirrors a dispatcher decision plus the new node id it
// produced.
type OperationEvent struct {
	Op       dispatch.BinaryOp
	Lhs, Rhs int
	Out      int
	Decision dispatch.Decision
}

// BackwardStep records one scheduler pop: the node visited, the incoming
// gradient that arrived at it, and the backward rule applied.
type BackwardStep struct {
	Node         int
	IncomingGrad float64
	Rule         string
}

// BackwardReport is the result of a reverse pass: per-node gradients (only
// populated for nodes with requires_grad), the ordered backward steps, and
// scheduler telemetry.
type BackwardReport struct {
	gradients []*float64
	Steps     []BackwardStep
	Telemetry SchedulerTelemetry
}

// Gradient returns the accumulated gradient for node, or nil if the node
// does not require grad.
func (r *BackwardReport) Gradient(node int) *float64 {
	if node < 0 || node >= len(r.gradients) {
		return nil
	}
	return r.gradients[node]
}

// Gradients returns every node's gradient slot (nil where requires_grad is
// false).
func (r *BackwardReport) Gradients() []*float64 { return r.gradients }

// Tape is an append-only forward graph of scalar operations plus the
// deterministic reverse-mode scheduler over it. Node identifiers are dense
// integer indices into the tape's node vector and are stable for the tape's
// lifetime.
type Tape struct {
	nodes []node
}

// NewTape returns an empty tape.
func NewTape() *Tape { return &Tape{} }

// NodeCount returns the number of nodes appended so far.
func (t *Tape) NodeCount() int { return len(t.nodes) }

// Leaf appends a Leaf node holding value and returns its id.
func (t *Tape) Leaf(value float64, requiresGrad bool) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{
		tensor:       tensor.NewScalarTensor(value, tensor.F64, tensor.CPU),
		requiresGrad: requiresGrad,
		op:           opLeaf,
	})
	return id
}

// Value returns the forward value captured at node.
func (t *Tape) Value(id int) (float64, error) {
	n, err := t.node(id)
	if err != nil {
		return 0, err
	}
	return n.tensor.Value(), nil
}

// Add appends an Add node routing lhs and rhs through the dispatcher.
func (t *Tape) Add(lhs, rhs int, mode dispatch.ExecutionMode) (int, OperationEvent, error) {
	return t.binary(dispatch.OpAdd, opAdd, lhs, rhs, mode)
}

// Sub appends a Sub node routing lhs and rhs through the dispatcher.
func (t *Tape) Sub(lhs, rhs int, mode dispatch.ExecutionMode) (int, OperationEvent, error) {
	return t.binary(dispatch.OpSub, opSub, lhs, rhs, mode)
}

// Mul appends a Mul node routing lhs and rhs through the dispatcher.
func (t *Tape) Mul(lhs, rhs int, mode dispatch.ExecutionMode) (int, OperationEvent, error) {
	return t.binary(dispatch.OpMul, opMul, lhs, rhs, mode)
}

// Div appends a Div node routing lhs and rhs through the dispatcher.
func (t *Tape) Div(lhs, rhs int, mode dispatch.ExecutionMode) (int, OperationEvent, error) {
	return t.binary(dispatch.OpDiv, opDiv, lhs, rhs, mode)
}

func (t *Tape) binary(dop dispatch.BinaryOp, nop nodeOpKind, lhs, rhs int, mode dispatch.ExecutionMode) (int, OperationEvent, error) {
	lhsNode, err := t.node(lhs)
	if err != nil {
		return 0, OperationEvent{}, err
	}
	rhsNode, err := t.node(rhs)
	if err != nil {
		return 0, OperationEvent{}, err
	}
	requiresGrad := lhsNode.requiresGrad || rhsNode.requiresGrad

	outcome, err := dispatch.DispatchScalarBinary(dop, mode, lhsNode.tensor, rhsNode.tensor, requiresGrad)
	if err != nil {
		return 0, OperationEvent{}, &DispatchFailureError{Inner: err}
	}

	out := len(t.nodes)
	t.nodes = append(t.nodes, node{
		tensor:       outcome.Tensor,
		requiresGrad: requiresGrad,
		op:           nop,
		lhs:          lhs,
		rhs:          rhs,
	})

	return out, OperationEvent{Op: dop, Lhs: lhs, Rhs: rhs, Out: out, Decision: outcome.Decision}, nil
}

// Backward runs a reverse pass from root under strict-default options.
func (t *Tape) Backward(root int) (*BackwardReport, error) {
	return t.BackwardWithOptions(root, StrictDefault())
}

// BackwardWithOptions runs a reverse pass from root. The tape itself is not
// consumed: successive calls on the same root return bit-identical reports
// (P1).
func (t *Tape) BackwardWithOptions(root int, options BackwardOptions) (*BackwardReport, error) {
	if root < 0 || root >= len(t.nodes) {
		return nil, &UnknownNodeError{Node: root}
	}

	depth, guardTriggered, fallbackUsed, err := reentrancyGuard(options)
	if err != nil {
		return nil, err
	}

	reachable, err := t.computeReachable(root)
	if err != nil {
		return nil, err
	}
	pending, err := t.computeDependencies(reachable)
	if err != nil {
		return nil, err
	}

	grads := make([]float64, len(t.nodes))
	grads[root] = 1.0

	queue := newReadyQueue(len(t.nodes) + 1)
	queue.push(root)

	steps := make([]BackwardStep, 0, len(t.nodes))
	executionOrder := make([]int, 0, len(t.nodes))

	for {
		id, ok := queue.pop()
		if !ok {
			break
		}
		incoming := grads[id]
		executionOrder = append(executionOrder, id)
		n := t.nodes[id]

		switch n.op {
		case opLeaf:
			if n.requiresGrad {
				steps = append(steps, BackwardStep{Node: id, IncomingGrad: incoming, Rule: "leaf"})
			}
		case opAdd:
			grads[n.lhs] += incoming
			grads[n.rhs] += incoming
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, BackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a+b)/da=1; d(a+b)/db=1"})
		case opSub:
			grads[n.lhs] += incoming
			grads[n.rhs] -= incoming
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, BackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a-b)/da=1; d(a-b)/db=-1"})
		case opMul:
			lhsValue := t.nodes[n.lhs].tensor.Value()
			rhsValue := t.nodes[n.rhs].tensor.Value()
			grads[n.lhs] += incoming * rhsValue
			grads[n.rhs] += incoming * lhsValue
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, BackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a*b)/da=b; d(a*b)/db=a"})
		case opDiv:
			lhsValue := t.nodes[n.lhs].tensor.Value()
			rhsValue := t.nodes[n.rhs].tensor.Value()
			grads[n.lhs] += incoming / rhsValue
			grads[n.rhs] -= incoming * lhsValue / (rhsValue * rhsValue)
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, BackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a/b)/da=1/b; d(a/b)/db=-(a/b^2)"})
		}
	}

	gradients := make([]*float64, len(t.nodes))
	for idx := range t.nodes {
		if t.nodes[idx].requiresGrad {
			v := grads[idx]
			gradients[idx] = &v
		}
	}

	return &BackwardReport{
		gradients: gradients,
		Steps:     steps,
		Telemetry: SchedulerTelemetry{
			ExecutionOrder:          executionOrder,
			QueuePushes:             queue.pushes,
			QueuePops:               queue.pops,
			MaxQueueLen:             queue.maxLen,
			DependencySnapshot:      pending,
			ReentrantDepth:          depth,
			ReentrantGuardTriggered: guardTriggered,
			HardenedFallbackUsed:    fallbackUsed,
		},
	}, nil
}

func (t *Tape) computeReachable(root int) ([]bool, error) {
	reachable := make([]bool, len(t.nodes))
	stack := []int{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < 0 || id >= len(t.nodes) {
			return nil, &UnknownNodeError{Node: id}
		}
		if reachable[id] {
			continue
		}
		reachable[id] = true
		n := t.nodes[id]
		if n.op != opLeaf {
			stack = append(stack, n.lhs, n.rhs)
		}
	}
	return reachable, nil
}

func (t *Tape) computeDependencies(reachable []bool) ([]int, error) {
	pending := make([]int, len(t.nodes))
	for idx, n := range t.nodes {
		if !reachable[idx] || n.op == opLeaf {
			continue
		}
		pending[n.lhs]++
		pending[n.rhs]++
	}
	return pending, nil
}

func completeDependency(pending []int, id int, queue *readyQueue) error {
	if pending[id] == 0 {
		return &DependencyUnderflowError{Node: id}
	}
	pending[id]--
	if pending[id] == 0 {
		queue.push(id)
	}
	return nil
}

func (t *Tape) node(id int) (node, error) {
	if id < 0 || id >= len(t.nodes) {
		return node{}, &UnknownNodeError{Node: id}
	}
	return t.nodes[id], nil
}
