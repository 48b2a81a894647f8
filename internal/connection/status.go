// status.go — the single-line status header injected into every framed
// tool response (spec §4.2, literal format in spec §6). This is
// user-facing and its format is fixed; it has no teacher precedent (the
// teacher never unifies status into one header line) and is built
// directly from the spec's literal grammar.
package connection

import (
	"fmt"
	"strings"
	"time"
)

// TechStack is the detected frameworks/libraries/CSS-framework summary for
// the attached tab. Detection itself is out of scope (spec §1); this type
// only carries whatever the extension reported.
type TechStack struct {
	Frameworks    []string
	Libraries     []string
	CSSFrameworks []string
	ObfuscatedCSS bool
}

func (t *TechStack) joined() string {
	if t == nil {
		return ""
	}
	all := make([]string, 0, len(t.Frameworks)+len(t.Libraries)+len(t.CSSFrameworks))
	all = append(all, t.Frameworks...)
	all = append(all, t.Libraries...)
	all = append(all, t.CSSFrameworks...)
	return strings.Join(all, " + ")
}

// AttachedTab is the §3 data-model record, mutable by tab-info
// notifications and cleared on disconnect/close.
type AttachedTab struct {
	TabID     int
	Index     int
	Title     string
	URL       string
	TechStack *TechStack
}

// HeaderInfo is everything FormatHeader needs to render one status line.
type HeaderInfo struct {
	Version        string
	State          State
	Browser        string
	Tab            *AttachedTab
	Stealth        bool
	DebugOn        bool
	BuildTimestamp string // RFC3339; rendered as [HH:MM:SS] in debug mode
}

const maxURLLen = 50

// truncateURL leaves a URL of up to 50 chars as is; a longer one becomes
// its first 47 chars plus "...", 50 chars in all (spec §6).
func truncateURL(url string) string {
	if len(url) <= maxURLLen {
		return url
	}
	return url[:47] + "..."
}

// FormatHeader renders the fixed status header. Passive state always
// renders the short "Disabled" variant regardless of any other field.
func FormatHeader(info HeaderInfo) string {
	if info.State == Passive {
		return fmt.Sprintf("🔴 v%s | Disabled\n---\n\n", info.Version)
	}

	emoji := "🟡" // active: listening, no peer yet
	if info.State == Connected {
		emoji = "✅"
	}

	segments := []string{fmt.Sprintf("%s v%s", emoji, info.Version)}
	if info.Browser != "" {
		segments = append(segments, info.Browser)
	}
	if info.Tab != nil {
		segments = append(segments, fmt.Sprintf("📄 Tab %d: %s", info.Tab.Index, truncateURL(info.Tab.URL)))
		if joined := info.Tab.TechStack.joined(); joined != "" {
			segments = append(segments, "🔧 "+joined)
		}
		if info.Tab.TechStack != nil && info.Tab.TechStack.ObfuscatedCSS {
			segments = append(segments, "⚠️ Obfuscated CSS")
		}
	}
	if info.Stealth {
		segments = append(segments, "🕵️ Stealth")
	}

	header := strings.Join(segments, " | ")
	if info.DebugOn && info.BuildTimestamp != "" {
		if ts, err := time.Parse(time.RFC3339, info.BuildTimestamp); err == nil {
			header += " " + ts.Format("[15:04:05]")
		}
	}
	return header + "\n---\n\n"
}
