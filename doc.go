// Package frankentorch is a deterministic, fail-closed numerical kernel: a
// strided tensor layer, a closed-enum operator dispatcher, a reverse-mode
// autograd tape with a deterministic scheduler, and a checkpoint codec
// backed by an erasure-coded durability sidecar.
//
// Everything lives in subpackages; this package has no exported API of its
// own:
//
//	tensor/     — TensorMeta, ScalarTensor, DenseTensor, id/version counters
//	kernelcpu/  — elementwise scalar and dense CPU kernels
//	dispatch/   — DispatchKey, KeySet, strict/hardened routing, decisions
//	autograd/   — Tape, TensorTape, the deterministic reverse-mode scheduler
//	checkpoint/ — canonical envelope encode/decode (strict and hardened)
//	raptorq/    — durability sidecar generation and decode proof
//	session/    — a thin façade composing the above into one entry point
//	internal/   — deterministic hashing, structured logging, CLI config
//	cmd/ftctl/  — a demonstrator CLI over the session façade
//
// See SPEC_FULL.md and DESIGN.md at the repository root for the full
// component design and the grounding behind each package.
package frankentorch
