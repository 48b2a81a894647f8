// layer3.go — the runtime page-proxy wrapper (spec §4.5 Layer 3). Transforms
// source into an IIFE that runs under a with(__proxy) block, so any access
// to a blocked global throws page-side even if layers 1 and 2 both missed
// something.
package secureeval

import "fmt"

// wrapForPageProxy implements the spec's literal transform: a
// "use strict" IIFE body running under with(__proxy), where __proxy traps
// get/getOwnPropertyDescriptor/ownKeys against the blocked-terminal set.
// The wrapped code carries prewrapped:true so the page-side evaluator does
// not double-wrap it (spec §4.5).
func wrapForPageProxy(source string) string {
	return fmt.Sprintf(`(function(){
  "use strict";
  var __blocked = %s;
  var __proxy = new Proxy(window, {
    get: function(target, prop) {
      if (__blocked.indexOf(prop) !== -1) throw new Error("[secure_eval] Blocked: " + String(prop));
      return target[prop];
    },
    getOwnPropertyDescriptor: function(target, prop) {
      if (__blocked.indexOf(prop) !== -1) throw new Error("[secure_eval] Blocked: " + String(prop));
      return Object.getOwnPropertyDescriptor(target, prop);
    },
    ownKeys: function(target) {
      return Object.keys(target).filter(function(k){ return __blocked.indexOf(k) === -1; });
    },
  });
  with (__proxy) {
%s
  }
})()`, blockedTerminalsJSON(), source)
}

func blockedTerminalsJSON() string {
	out := "["
	for i, t := range blockedTerminals {
		if i > 0 {
			out += ","
		}
		out += `"` + t + `"`
	}
	return out + "]"
}
