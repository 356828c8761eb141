package autograd

import (
	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/tensor"
)

type tensorNode struct {
	tensor       tensor.DenseTensor
	requiresGrad bool
	op           nodeOpKind
	lhs, rhs     int
}

// TensorOperationEvent mirrors OperationEvent for dense operands.
type TensorOperationEvent struct {
	Op       dispatch.BinaryOp
	Lhs, Rhs int
	Out      int
	Decision dispatch.Decision
}

// TensorBackwardStep mirrors BackwardStep for dense operands: the incoming
// gradient is a full element-major slice rather than a single float64.
type TensorBackwardStep struct {
	Node         int
	IncomingGrad []float64
	Rule         string
}

// TensorBackwardReport mirrors BackwardReport for dense operands.
type TensorBackwardReport struct {
	gradients [][]float64
	Steps     []TensorBackwardStep
	Telemetry SchedulerTelemetry
}

// Gradient returns the accumulated element-major gradient slice for node,
// or nil if the node does not require grad.
func (r *TensorBackwardReport) Gradient(node int) []float64 {
	if node < 0 || node >= len(r.gradients) {
		return nil
	}
	return r.gradients[node]
}

// TensorTape is the dense-tensor analogue of Tape: an append-only forward
// graph of elementwise operations plus the same dependency-counted,
// deterministically ordered reverse-mode scheduler.
type TensorTape struct {
	nodes []tensorNode
}

// NewTensorTape returns an empty dense tape.
func NewTensorTape() *TensorTape { return &TensorTape{} }

// NodeCount returns the number of nodes appended so far.
func (t *TensorTape) NodeCount() int { return len(t.nodes) }

// Leaf appends a Leaf node holding a dense tensor and returns its id.
func (t *TensorTape) Leaf(value tensor.DenseTensor, requiresGrad bool) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, tensorNode{tensor: value, requiresGrad: requiresGrad, op: opLeaf})
	return id
}

// Values returns the forward values materialised at node.
func (t *TensorTape) Values(id int) ([]float64, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	return n.tensor.Values(), nil
}

// Add appends an Add node routing lhs and rhs through the dispatcher.
func (t *TensorTape) Add(lhs, rhs int, mode dispatch.ExecutionMode) (int, TensorOperationEvent, error) {
	return t.binary(dispatch.OpAdd, opAdd, lhs, rhs, mode)
}

// Sub appends a Sub node routing lhs and rhs through the dispatcher.
func (t *TensorTape) Sub(lhs, rhs int, mode dispatch.ExecutionMode) (int, TensorOperationEvent, error) {
	return t.binary(dispatch.OpSub, opSub, lhs, rhs, mode)
}

// Mul appends a Mul node routing lhs and rhs through the dispatcher.
func (t *TensorTape) Mul(lhs, rhs int, mode dispatch.ExecutionMode) (int, TensorOperationEvent, error) {
	return t.binary(dispatch.OpMul, opMul, lhs, rhs, mode)
}

// Div appends a Div node routing lhs and rhs through the dispatcher.
func (t *TensorTape) Div(lhs, rhs int, mode dispatch.ExecutionMode) (int, TensorOperationEvent, error) {
	return t.binary(dispatch.OpDiv, opDiv, lhs, rhs, mode)
}

func (t *TensorTape) binary(dop dispatch.BinaryOp, nop nodeOpKind, lhs, rhs int, mode dispatch.ExecutionMode) (int, TensorOperationEvent, error) {
	lhsNode, err := t.node(lhs)
	if err != nil {
		return 0, TensorOperationEvent{}, err
	}
	rhsNode, err := t.node(rhs)
	if err != nil {
		return 0, TensorOperationEvent{}, err
	}
	requiresGrad := lhsNode.requiresGrad || rhsNode.requiresGrad

	outcome, err := dispatch.DispatchDenseBinary(dop, mode, lhsNode.tensor, rhsNode.tensor, requiresGrad)
	if err != nil {
		return 0, TensorOperationEvent{}, &DispatchFailureError{Inner: err}
	}

	out := len(t.nodes)
	t.nodes = append(t.nodes, tensorNode{
		tensor:       outcome.Tensor,
		requiresGrad: requiresGrad,
		op:           nop,
		lhs:          lhs,
		rhs:          rhs,
	})

	return out, TensorOperationEvent{Op: dop, Lhs: lhs, Rhs: rhs, Out: out, Decision: outcome.Decision}, nil
}

// Backward runs a reverse pass from root under strict-default options.
func (t *TensorTape) Backward(root int) (*TensorBackwardReport, error) {
	return t.BackwardWithOptions(root, StrictDefault())
}

// BackwardWithOptions runs an elementwise reverse pass from root.
func (t *TensorTape) BackwardWithOptions(root int, options BackwardOptions) (*TensorBackwardReport, error) {
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

	grads := make([][]float64, len(t.nodes))
	for idx, n := range t.nodes {
		if reachable[idx] {
			grads[idx] = make([]float64, n.tensor.Meta().NumElements())
		}
	}
	for i := range grads[root] {
		grads[root][i] = 1.0
	}

	queue := newReadyQueue(len(t.nodes) + 1)
	queue.push(root)

	steps := make([]TensorBackwardStep, 0, len(t.nodes))
	executionOrder := make([]int, 0, len(t.nodes))

	for {
		id, ok := queue.pop()
		if !ok {
			break
		}
		incoming := grads[id]
		executionOrder = append(executionOrder, id)
		n := t.nodes[id]

		if err := ensureTensorLen(id, incoming, n.tensor.Meta().NumElements()); err != nil {
			return nil, err
		}

		switch n.op {
		case opLeaf:
			if n.requiresGrad {
				steps = append(steps, TensorBackwardStep{Node: id, IncomingGrad: incoming, Rule: "leaf"})
			}
		case opAdd:
			accumulateTensorGradient(grads[n.lhs], incoming, 1.0)
			accumulateTensorGradient(grads[n.rhs], incoming, 1.0)
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, TensorBackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a+b)/da=1; d(a+b)/db=1"})
		case opSub:
			accumulateTensorGradient(grads[n.lhs], incoming, 1.0)
			accumulateTensorGradient(grads[n.rhs], incoming, -1.0)
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, TensorBackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a-b)/da=1; d(a-b)/db=-1"})
		case opMul:
			lhsValues := t.nodes[n.lhs].tensor.Values()
			rhsValues := t.nodes[n.rhs].tensor.Values()
			for i := range incoming {
				grads[n.lhs][i] += incoming[i] * rhsValues[i]
				grads[n.rhs][i] += incoming[i] * lhsValues[i]
			}
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, TensorBackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a*b)/da=b; d(a*b)/db=a"})
		case opDiv:
			lhsValues := t.nodes[n.lhs].tensor.Values()
			rhsValues := t.nodes[n.rhs].tensor.Values()
			for i := range incoming {
				grads[n.lhs][i] += incoming[i] / rhsValues[i]
				grads[n.rhs][i] -= incoming[i] * lhsValues[i] / (rhsValues[i] * rhsValues[i])
			}
			if err := completeDependency(pending, n.lhs, queue); err != nil {
				return nil, err
			}
			if err := completeDependency(pending, n.rhs, queue); err != nil {
				return nil, err
			}
			steps = append(steps, TensorBackwardStep{Node: id, IncomingGrad: incoming, Rule: "d(a/b)/da=1/b; d(a/b)/db=-(a/b^2)"})
		}
	}

	gradients := make([][]float64, len(t.nodes))
	for idx := range t.nodes {
		if t.nodes[idx].requiresGrad {
			gradients[idx] = grads[idx]
		}
	}

	return &TensorBackwardReport{
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

func accumulateTensorGradient(dst, incoming []float64, coeff float64) {
	for i := range incoming {
		dst[i] += incoming[i] * coeff
	}
}

func ensureTensorLen(node int, grad []float64, want uint64) error {
	if uint64(len(grad)) != want {
		return &GradientShapeMismatchError{Node: node, Expected: int(want), Actual: len(grad)}
	}
	return nil
}

func (t *TensorTape) computeReachable(root int) ([]bool, error) {
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

func (t *TensorTape) computeDependencies(reachable []bool) ([]int, error) {
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

func (t *TensorTape) node(id int) (tensorNode, error) {
	if id < 0 || id >= len(t.nodes) {
		return tensorNode{}, &UnknownNodeError{Node: id}
	}
	return t.nodes[id], nil
}
