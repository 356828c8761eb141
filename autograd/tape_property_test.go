package autograd_test

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/ft-systems/frankentorch/autograd"
	"github.com/ft-systems/frankentorch/dispatch"
)

// buildRandomChain draws a sequence of binary ops over a fixed pool of
// nonzero leaves and returns the tape, the id of the final node (the
// reachable root for backward), and every produced operation's event
// (carrying the lhs/rhs/out edges needed to check scheduler ordering).
func buildRandomChain(t *rapid.T) (*autograd.Tape, int, []autograd.OperationEvent) {
	tape := autograd.NewTape()
	leafCount := rapid.IntRange(2, 5).Draw(t, "leaf_count")
	ids := make([]int, leafCount)
	for i := range ids {
		value := rapid.Float64Range(1, 9).Draw(t, "leaf_value")
		ids[i] = tape.Leaf(value, true)
	}

	steps := rapid.IntRange(1, 6).Draw(t, "steps")
	opNames := []string{"add", "sub", "mul", "div"}
	root := ids[len(ids)-1]
	events := make([]autograd.OperationEvent, 0, steps)
	for i := 0; i < steps; i++ {
		lhs := rapid.SampledFrom(ids).Draw(t, "lhs")
		rhs := rapid.SampledFrom(ids).Draw(t, "rhs")
		opName := rapid.SampledFrom(opNames).Draw(t, "op")

		var (
			out   int
			event autograd.OperationEvent
			err   error
		)
		switch opName {
		case "add":
			out, event, err = tape.Add(lhs, rhs, dispatch.Strict)
		case "sub":
			out, event, err = tape.Sub(lhs, rhs, dispatch.Strict)
		case "mul":
			out, event, err = tape.Mul(lhs, rhs, dispatch.Strict)
		case "div":
			out, event, err = tape.Div(lhs, rhs, dispatch.Strict)
		}
		if err != nil {
			continue
		}
		ids = append(ids, out)
		events = append(events, event)
		root = out
	}
	return tape, root, events
}

// TestBackwardIsDeterministicAcrossRepeatedCallsOnRandomChains is property
// P1: two successive backward(root) passes over the same tape produce
// bit-identical gradients, execution order, and telemetry counters.
func TestBackwardIsDeterministicAcrossRepeatedCallsOnRandomChains(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tape, root, _ := buildRandomChain(t)

		first, err := tape.Backward(root)
		if err != nil {
			t.Fatalf("first backward: %v", err)
		}
		second, err := tape.Backward(root)
		if err != nil {
			t.Fatalf("second backward: %v", err)
		}

		if len(first.Gradients()) != len(second.Gradients()) {
			t.Fatalf("gradient slot count differs across calls")
		}
		for i := range first.Gradients() {
			a, b := first.Gradient(i), second.Gradient(i)
			if (a == nil) != (b == nil) {
				t.Fatalf("node %d: gradient presence differs across calls", i)
			}
			if a != nil && math.Float64bits(*a) != math.Float64bits(*b) {
				t.Fatalf("node %d: gradient %v != %v across calls", i, *a, *b)
			}
		}

		if len(first.Telemetry.ExecutionOrder) != len(second.Telemetry.ExecutionOrder) {
			t.Fatalf("execution order length differs across calls")
		}
		for i := range first.Telemetry.ExecutionOrder {
			if first.Telemetry.ExecutionOrder[i] != second.Telemetry.ExecutionOrder[i] {
				t.Fatalf("execution order differs at position %d", i)
			}
		}
		if first.Telemetry.QueuePushes != second.Telemetry.QueuePushes ||
			first.Telemetry.QueuePops != second.Telemetry.QueuePops ||
			first.Telemetry.MaxQueueLen != second.Telemetry.MaxQueueLen {
			t.Fatalf("scheduler telemetry counters differ across calls")
		}
	})
}

// TestParentExecutesAfterEveryDependent is property P3: for every parent
// node (an op's lhs/rhs operand) with a reachable dependent (the op's own
// output node), the parent's position in execution_order is strictly
// greater than its dependent's position — backward visits a node's output
// before it visits the node itself.
func TestParentExecutesAfterEveryDependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tape, root, events := buildRandomChain(t)

		report, err := tape.Backward(root)
		if err != nil {
			t.Fatalf("backward: %v", err)
		}

		position := map[int]int{}
		for pos, id := range report.Telemetry.ExecutionOrder {
			position[id] = pos
		}

		for _, event := range events {
			depPos, ok := position[event.Out]
			if !ok {
				continue // dependent not reachable from this root
			}
			for _, parent := range []int{event.Lhs, event.Rhs} {
				parentPos, ok := position[parent]
				if !ok {
					continue
				}
				if parentPos <= depPos {
					t.Fatalf("parent %d (pos %d) did not execute after dependent %d (pos %d)",
						parent, parentPos, event.Out, depPos)
				}
			}
		}
	})
}
