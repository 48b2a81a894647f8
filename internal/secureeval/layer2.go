// layer2.go — the membrane pre-flight (spec §4.5 Layer 2). The broker's
// side of this layer is a thin round-trip: it asks the extension peer to
// run the candidate source against its membrane and reports the verdict.
// The membrane itself runs in the peer (this module's reference peer has
// one in internal/extension/membrane.go); Peer is the seam.
package secureeval

import "context"

// MembraneVerdict is what the extension's validateEval command reports.
// Available distinguishes "the peer doesn't implement Layer 2" (older
// client: treat as skip, proceed to Layer 3) from "the peer ran it and
// found it safe".
type MembraneVerdict struct {
	Safe      bool   `json:"safe"`
	Reason    string `json:"reason,omitempty"`
	Available bool   `json:"-"`
}

// Peer is the seam Evaluate calls through for the Layer 2 round-trip.
type Peer interface {
	ValidateEval(ctx context.Context, source string) (MembraneVerdict, error)
}

// blockedTerminals is the membrane's terminal catalog: the Layer 1 list
// plus constructor/__proto__/globalThis/Reflect/Proxy/getPrototypeOf/
// defineProperty (spec §4.5). The broker doesn't execute the membrane
// itself; the reference peer's membrane reads this catalog through
// IsBlockedTerminal, and layer3.go embeds it in the page-proxy wrapper.
var blockedTerminals = append(membraneTerminalsFromLayer1(),
	"constructor", "__proto__", "globalThis", "Reflect", "Proxy", "getPrototypeOf", "defineProperty",
)

func membraneTerminalsFromLayer1() []string {
	out := make([]string, 0, len(blockedCalls)+len(blockedMemberChains))
	for name := range blockedCalls {
		out = append(out, name)
	}
	for name := range blockedMemberChains {
		out = append(out, name)
	}
	return out
}

// IsBlockedTerminal reports whether name is on the membrane's terminal
// catalog; the reference peer's membrane (internal/extension/membrane.go)
// calls it for every name it traps.
func IsBlockedTerminal(name string) bool {
	for _, t := range blockedTerminals {
		if t == name {
			return true
		}
	}
	return false
}
