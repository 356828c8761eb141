package dispatch_test

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/tensor"
)

var compositeKeys = []dispatch.Key{
	dispatch.CompositeImplicitAutograd,
	dispatch.CompositeExplicitAutograd,
}

// TestStrictRejectsAndHardenedFallsBackForCompositeRouting is property P7:
// over any keyset whose highest-priority type key is a Composite* key (both
// outrank CPU/BackendSelect in typePriority, so adding CPU alongside either
// one never displaces it), strict-mode dispatch returns an
// IncompatibleSet-flavoured error while hardened-mode dispatch succeeds with
// fallback_used=true and backend_key=CPU.
func TestStrictRejectsAndHardenedFallsBackForCompositeRouting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		highest := rapid.SampledFrom(compositeKeys).Draw(t, "highest")
		includeBackendSelect := rapid.Bool().Draw(t, "include_backend_select")

		keyset := dispatch.EmptyKeySet()
		keyset.Add(dispatch.CPU)
		keyset.Add(highest)
		if includeBackendSelect {
			keyset.Add(dispatch.BackendSelect)
		}

		lhs := tensor.NewScalarTensor(2, tensor.F64, tensor.CPU)
		rhs := tensor.NewScalarTensor(3, tensor.F64, tensor.CPU)

		_, err := dispatch.DispatchScalarBinaryWithKeyset(dispatch.OpAdd, dispatch.Strict, lhs, rhs, keyset)
		if err == nil {
			t.Fatalf("strict mode accepted composite/backend routing for keyset %v", keyset.Bits())
		}
		if !strings.Contains(err.Error(), "strict mode forbids") {
			t.Fatalf("strict mode error %q does not mention the forbidding rule", err.Error())
		}

		out, err := dispatch.DispatchScalarBinaryWithKeyset(dispatch.OpAdd, dispatch.Hardened, lhs, rhs, keyset)
		if err != nil {
			t.Fatalf("hardened mode rejected composite/backend routing: %v", err)
		}
		if !out.Decision.FallbackUsed {
			t.Fatalf("hardened mode decision did not set fallback_used")
		}
		if out.Decision.BackendKey != dispatch.CPU {
			t.Fatalf("hardened mode backend_key = %s, want CPU", out.Decision.BackendKey)
		}
	})
}
