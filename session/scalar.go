package session

import (
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/autograd"
	"github.com/ft-systems/frankentorch/checkpoint"
	"github.com/ft-systems/frankentorch/dispatch"
)

// Session is a thin stateful wrapper over a scalar Tape and a fixed
// dispatch execution mode: create a variable, run a binary op, read a
// value, run backward, read a gradient, snapshot or restore tape state.
type Session struct {
	tape       *autograd.Tape
	mode       dispatch.ExecutionMode
	logger     *zap.Logger
	lastReport *autograd.BackwardReport
}

// NewSession returns an empty session pinned to mode; every op and
// backward pass this session runs uses mode's dispatch routing and
// reentrancy defaults.
func NewSession(mode dispatch.ExecutionMode) *Session {
	return &Session{tape: autograd.NewTape(), mode: mode}
}

// WithLogger attaches an optional structured logger; a nil logger is
// equivalent to never calling WithLogger.
func (s *Session) WithLogger(logger *zap.Logger) *Session {
	s.logger = logger
	return s
}

// Mode returns the session's fixed execution mode.
func (s *Session) Mode() dispatch.ExecutionMode { return s.mode }

// Var creates a new leaf variable and returns its node id.
func (s *Session) Var(value float64, requiresGrad bool) int {
	return s.tape.Leaf(value, requiresGrad)
}

// Add routes an addition through the dispatcher at the session's mode.
func (s *Session) Add(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Add(lhs, rhs, s.mode)
	return id, err
}

// Sub routes a subtraction through the dispatcher at the session's mode.
func (s *Session) Sub(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Sub(lhs, rhs, s.mode)
	return id, err
}

// Mul routes a multiplication through the dispatcher at the session's mode.
func (s *Session) Mul(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Mul(lhs, rhs, s.mode)
	return id, err
}

// Div routes a division through the dispatcher at the session's mode.
func (s *Session) Div(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Div(lhs, rhs, s.mode)
	return id, err
}

// Value reads a node's forward value.
func (s *Session) Value(id int) (float64, error) {
	return s.tape.Value(id)
}

// Backward runs a reverse pass from root under the reentrancy defaults
// matching the session's mode, retaining the resulting report for
// subsequent Gradient/Snapshot calls.
func (s *Session) Backward(root int) error {
	opts := autograd.ForMode(s.mode)
	opts.Logger = s.logger
	report, err := s.tape.BackwardWithOptions(root, opts)
	if err != nil {
		return err
	}
	s.lastReport = report
	return nil
}

// Gradient returns the node's accumulated gradient from the most recent
// Backward call, or nil if the node does not require grad or no backward
// pass has run.
func (s *Session) Gradient(id int) (*float64, error) {
	if id < 0 || id >= s.tape.NodeCount() {
		return nil, &UnknownVariableError{ID: id}
	}
	if s.lastReport == nil {
		return nil, nil
	}
	return s.lastReport.Gradient(id), nil
}

// Snapshot captures every tape node's value and (if a backward pass has
// run) gradient into a canonical checkpoint envelope.
func (s *Session) Snapshot() *checkpoint.CheckpointEnvelope {
	entries := make([]checkpoint.SnapshotEntry, s.tape.NodeCount())
	for id := 0; id < s.tape.NodeCount(); id++ {
		value, _ := s.tape.Value(id)
		entries[id] = checkpoint.SnapshotEntry{NodeID: id, Value: value}
		if s.lastReport != nil {
			entries[id].Grad = s.lastReport.Gradient(id)
		}
	}
	mode := checkpoint.ModeStrict
	if s.mode == dispatch.Hardened {
		mode = checkpoint.ModeHardened
	}
	return checkpoint.Encode(entries, mode)
}

// Restore rebuilds a fresh session from a checkpoint envelope: every entry
// becomes a leaf variable carrying its saved value, with requires_grad
// inferred from gradient presence. The returned session's node ids match
// the envelope's node_id ordering exactly.
func Restore(env *checkpoint.CheckpointEnvelope, mode dispatch.ExecutionMode) *Session {
	s := NewSession(mode)
	for _, entry := range env.Entries {
		s.tape.Leaf(entry.Value, entry.Grad != nil)
	}
	return s
}
