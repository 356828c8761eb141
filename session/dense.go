package session

import (
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/autograd"
	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/tensor"
)

// TensorSession is the dense-tensor analogue of Session, delegating every
// operation to a TensorTape instead of a scalar Tape.
type TensorSession struct {
	tape       *autograd.TensorTape
	mode       dispatch.ExecutionMode
	logger     *zap.Logger
	lastReport *autograd.TensorBackwardReport
}

// NewTensorSession returns an empty dense session pinned to mode.
func NewTensorSession(mode dispatch.ExecutionMode) *TensorSession {
	return &TensorSession{tape: autograd.NewTensorTape(), mode: mode}
}

// WithLogger attaches an optional structured logger; a nil logger is
// equivalent to never calling WithLogger.
func (s *TensorSession) WithLogger(logger *zap.Logger) *TensorSession {
	s.logger = logger
	return s
}

// Mode returns the session's fixed execution mode.
func (s *TensorSession) Mode() dispatch.ExecutionMode { return s.mode }

// Var creates a new leaf dense variable and returns its node id.
func (s *TensorSession) Var(value tensor.DenseTensor, requiresGrad bool) int {
	return s.tape.Leaf(value, requiresGrad)
}

// Add routes an elementwise addition through the dispatcher.
func (s *TensorSession) Add(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Add(lhs, rhs, s.mode)
	return id, err
}

// Sub routes an elementwise subtraction through the dispatcher.
func (s *TensorSession) Sub(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Sub(lhs, rhs, s.mode)
	return id, err
}

// Mul routes an elementwise multiplication through the dispatcher.
func (s *TensorSession) Mul(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Mul(lhs, rhs, s.mode)
	return id, err
}

// Div routes an elementwise division through the dispatcher.
func (s *TensorSession) Div(lhs, rhs int) (int, error) {
	id, _, err := s.tape.Div(lhs, rhs, s.mode)
	return id, err
}

// Values reads a node's materialised forward values.
func (s *TensorSession) Values(id int) ([]float64, error) {
	return s.tape.Values(id)
}

// Backward runs a reverse pass from root under the reentrancy defaults
// matching the session's mode.
func (s *TensorSession) Backward(root int) error {
	opts := autograd.ForMode(s.mode)
	opts.Logger = s.logger
	report, err := s.tape.BackwardWithOptions(root, opts)
	if err != nil {
		return err
	}
	s.lastReport = report
	return nil
}

// Gradient returns the node's accumulated elementwise gradient from the
// most recent Backward call, or nil if unavailable.
func (s *TensorSession) Gradient(id int) ([]float64, error) {
	if id < 0 || id >= s.tape.NodeCount() {
		return nil, &UnknownVariableError{ID: id}
	}
	if s.lastReport == nil {
		return nil, nil
	}
	return s.lastReport.Gradient(id), nil
}
