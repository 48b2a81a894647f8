// diff.go — the page-diffing experiment (spec §4.4.1): before/after
// snapshots via the extension's capturePageState primitive, diffed and
// rendered as a confidence-scored report appended to browser_interact
// results.
package dispatcher

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/h8ngry/supersurf/internal/transport"
)

// pageState is the raw snapshot capturePageState returns.
type pageState struct {
	TextEntries    []string `json:"textEntries"`
	ElementCount   int      `json:"elementCount"`
	HasShadowRoots bool     `json:"hasShadowRoots"`
	HasIframes     bool     `json:"hasIframes"`
}

// pageDiff is the computed delta between two snapshots.
type pageDiff struct {
	Added      []string
	Removed    []string
	Changed    []changedEntry
	CountDelta int
	Confidence float64
}

// changedEntry pairs an added and removed entry that are near-duplicates
// of each other (a reworded label, not a genuinely new/removed one).
type changedEntry struct {
	Before string
	After  string
}

// capturePageState asks the extension for a page-state snapshot. A failure
// here degrades gracefully: the diff for that side is simply empty.
func capturePageState(ctx context.Context, t *transport.Transport) (pageState, error) {
	raw, err := t.SendCmd(ctx, "capturePageState", nil, transport.DefaultTimeout)
	if err != nil {
		return pageState{}, err
	}
	var state pageState
	_ = json.Unmarshal(raw, &state)
	return state, nil
}

// diffSnapshots computes added/removed text entries unique to either side
// and the element-count delta, then derives a confidence score: 1.0 minus
// 0.05 for each of {any shadow roots, any iframes, elementCount>5000}
// on the after-snapshot (spec §4.4.1). The snapshot carries a single
// elementCount, used both for the delta and for this penalty.
// Hidden-element count never affects confidence.
func diffSnapshots(before, after pageState) pageDiff {
	beforeSet := toSet(before.TextEntries)
	afterSet := toSet(after.TextEntries)

	var added, removed []string
	for _, entry := range after.TextEntries {
		if !beforeSet[entry] {
			added = append(added, entry)
		}
	}
	for _, entry := range before.TextEntries {
		if !afterSet[entry] {
			removed = append(removed, entry)
		}
	}

	added, removed, changed := reclassifyNearDuplicates(added, removed)

	penalties := 0
	if after.HasShadowRoots {
		penalties++
	}
	if after.HasIframes {
		penalties++
	}
	if after.ElementCount > 5000 {
		penalties++
	}

	return pageDiff{
		Added:      added,
		Removed:    removed,
		Changed:    changed,
		CountDelta: after.ElementCount - before.ElementCount,
		Confidence: float64(100-5*penalties) / 100,
	}
}

const nearDuplicateEditRatio = 0.3

// reclassifyNearDuplicates pairs an added entry with a removed entry when
// they're a minor edit of each other (e.g. a counter or timestamp changed
// within otherwise-identical text), so the report doesn't list a reworded
// label as one spurious addition and one spurious removal. Pairing uses
// diffmatchpatch's Levenshtein distance as an edit-ratio estimate; unpaired
// entries pass through unchanged.
func reclassifyNearDuplicates(added, removed []string) ([]string, []string, []changedEntry) {
	if len(added) == 0 || len(removed) == 0 {
		return added, removed, nil
	}

	dmp := diffmatchpatch.New()
	usedRemoved := make(map[int]bool, len(removed))
	var changed []changedEntry
	var remainingAdded []string

	for _, a := range added {
		bestIdx, bestRatio := -1, 1.0
		for i, r := range removed {
			if usedRemoved[i] {
				continue
			}
			diffs := dmp.DiffMain(r, a, false)
			dist := dmp.DiffLevenshtein(diffs)
			longest := len(r)
			if len(a) > longest {
				longest = len(a)
			}
			if longest == 0 {
				continue
			}
			ratio := float64(dist) / float64(longest)
			if ratio < bestRatio {
				bestRatio, bestIdx = ratio, i
			}
		}
		if bestIdx >= 0 && bestRatio <= nearDuplicateEditRatio {
			usedRemoved[bestIdx] = true
			changed = append(changed, changedEntry{Before: removed[bestIdx], After: a})
			continue
		}
		remainingAdded = append(remainingAdded, a)
	}

	var remainingRemoved []string
	for i, r := range removed {
		if !usedRemoved[i] {
			remainingRemoved = append(remainingRemoved, r)
		}
	}
	return remainingAdded, remainingRemoved, changed
}

func toSet(entries []string) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e] = true
	}
	return set
}

const diffConfidenceThreshold = 0.7

// renderDiff formats a pageDiff into the report section appended to
// interact results: first 5 added/removed entries (with "+N more"), each
// truncated to ~60 chars with a middle ellipsis; "No visible changes" for
// an empty diff; hidden entirely below the confidence threshold.
func renderDiff(d pageDiff) map[string]any {
	if d.Confidence < diffConfidenceThreshold {
		return map[string]any{"hidden": true, "reason": "confidence below threshold"}
	}
	if len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 {
		return map[string]any{"summary": "No visible changes", "confidencePct": confidencePct(d.Confidence)}
	}
	return map[string]any{
		"added":         renderEntries(d.Added),
		"removed":       renderEntries(d.Removed),
		"changed":       renderChanged(d.Changed),
		"countDelta":    d.CountDelta,
		"confidencePct": confidencePct(d.Confidence),
	}
}

func renderChanged(entries []changedEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, middleEllipsis(e.Before, 60)+" -> "+middleEllipsis(e.After, 60))
	}
	return out
}

func confidencePct(c float64) int {
	return int(c*100 + 0.5)
}

func renderEntries(entries []string) []string {
	const maxShown = 5
	out := make([]string, 0, maxShown+1)
	for i, e := range entries {
		if i >= maxShown {
			out = append(out, plural(len(entries)-maxShown))
			break
		}
		out = append(out, middleEllipsis(e, 60))
	}
	return out
}

func plural(n int) string {
	return "+" + strconv.Itoa(n) + " more"
}

// middleEllipsis truncates s to maxLen using a middle ellipsis, keeping
// roughly equal head/tail portions (spec §4.4.1).
func middleEllipsis(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	keep := maxLen - 3
	head := keep / 2
	tail := keep - head
	var b strings.Builder
	b.WriteString(s[:head])
	b.WriteString("...")
	b.WriteString(s[len(s)-tail:])
	return b.String()
}
