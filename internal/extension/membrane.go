// membrane.go — the reference peer's Layer 2 membrane (spec §4.5): a goja
// Proxy over a bare object, used as a with() scope around the candidate
// source. Its get/has traps fire for names on secureeval.IsBlockedTerminal's
// catalog, so a bare reference such as `fetch` or `eval` marks the source
// unsafe. A trap records the hit and returns; it never throws. Names not on
// the catalog (including `window`) resolve past the proxy, so member chains
// such as `window.fetch` are not seen, and dotted catalog entries such as
// "document.cookie" never match a single looked-up name.
package extension

import (
	"context"

	"github.com/dop251/goja"

	"github.com/h8ngry/supersurf/internal/secureeval"
)

// ValidateEval runs source in a throwaway goja runtime under the membrane
// proxy built by membraneSource and reports it unsafe when a blocked name
// was looked up; the Reason does not name which one. Exceptions thrown by
// source itself are swallowed and do not affect the verdict.
func ValidateEval(ctx context.Context, source string) (secureeval.MembraneVerdict, error) {
	vm := goja.New()
	wrapped, err := vm.RunProgram(membraneProgram)
	if err != nil {
		return secureeval.MembraneVerdict{}, err
	}
	guard, ok := goja.AssertFunction(wrapped)
	if !ok {
		return secureeval.MembraneVerdict{Safe: true}, nil
	}

	isBlocked := vm.ToValue(func(name string) bool { return secureeval.IsBlockedTerminal(name) })
	result, callErr := guard(goja.Undefined(), vm.ToValue(source), isBlocked)
	if callErr != nil {
		if exc, ok := callErr.(*goja.Exception); ok {
			return secureeval.MembraneVerdict{Safe: false, Reason: exc.Value().String()}, nil
		}
		return secureeval.MembraneVerdict{Safe: false, Reason: callErr.Error()}, nil
	}
	if result.ToBoolean() {
		return secureeval.MembraneVerdict{Safe: true}, nil
	}
	return secureeval.MembraneVerdict{Safe: false, Reason: "membrane: blocked terminal access"}, nil
}

// membraneSource builds a Proxy over a bare object, traps get/has on any
// name the isBlocked predicate flags, and reports whether evaluating
// source through that proxy (via the same with()-wrapper shape as
// secureeval's Layer 3) completed without tripping a trap.
const membraneSource = `(function(source, isBlocked) {
  let tripped = false;
  const target = {};
  const proxy = new Proxy(target, {
    get(t, prop) {
      if (typeof prop === 'string' && isBlocked(prop)) { tripped = true; return undefined; }
      return t[prop];
    },
    has(t, prop) {
      // Only claim the names we're screening; everything else must fall
      // through to the real scope chain below the with-object, or every
      // ordinary local variable read would resolve to undefined instead.
      if (typeof prop === 'string' && isBlocked(prop)) { tripped = true; return true; }
      return false;
    },
  });
  try {
    with (proxy) { (function() { return eval(source); })(); }
  } catch (e) {
    // A ReferenceError from an unresolved identifier isn't a membrane
    // trip; only an explicit tripped flag counts.
  }
  return !tripped;
})`

var membraneProgram = goja.MustCompile("membrane.go", membraneSource, false)
