// File: profile.go
// Role: the per-rewriter profiling record every driver returns, rendered by
// PrintProfile and combined by MergeProfile.
package rewrite

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is the bookkeeping a rewrite driver's Apply call accumulates:
// how long it ran, how many times it actually changed the graph, and the
// profiles of any sub-rewriters it composed. RunID is a random identifier
// the drivers in this package stamp at the start of each Apply call; a
// Profile built outside this package (e.g. by merge.MergeOptimizer) keeps
// the zero RunID. MergeProfile gives the combined Profile a fresh RunID and
// does not keep the RunIDs of its inputs.
type Profile struct {
	RunID        uuid.UUID
	RewriterName string
	Duration     time.Duration
	NumApplied   int
	Warnings     []string
	Sub          []Profile
}

// newProfile starts a Profile for name, stamping a fresh RunID.
func newProfile(name string) Profile {
	return Profile{RunID: uuid.New(), RewriterName: name}
}

// PrintProfile renders a Profile tree as indented, human-readable text.
// Besides PrintProfile and MergeProfile, the drivers in this package read
// only NumApplied of their members' Profiles (SeqOptimizer sums it;
// EquilibriumOptimizer also uses it to detect change).
func PrintProfile(p Profile) string {
	var b strings.Builder
	printProfile(&b, p, 0)
	return b.String()
}

func printProfile(b *strings.Builder, p Profile, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s: applied=%d duration=%s", indent, p.RewriterName, p.NumApplied, p.Duration)
	if len(p.Warnings) > 0 {
		fmt.Fprintf(b, " warnings=%d", len(p.Warnings))
	}
	b.WriteByte('\n')
	for _, sub := range p.Sub {
		printProfile(b, sub, depth+1)
	}
}

// MergeProfile combines profiles collected across repeated Apply calls
// against the same driver (e.g. successive compiler runs) into one summary:
// durations and applied-counts sum, sub-profiles merge positionally.
func MergeProfile(profiles ...Profile) Profile {
	if len(profiles) == 0 {
		return Profile{}
	}
	merged := Profile{RunID: uuid.New(), RewriterName: profiles[0].RewriterName}
	var subs [][]Profile
	for _, p := range profiles {
		merged.Duration += p.Duration
		merged.NumApplied += p.NumApplied
		merged.Warnings = append(merged.Warnings, p.Warnings...)
		subs = append(subs, p.Sub)
	}
	maxLen := 0
	for _, s := range subs {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	for i := 0; i < maxLen; i++ {
		var column []Profile
		for _, s := range subs {
			if i < len(s) {
				column = append(column, s[i])
			}
		}
		if len(column) > 0 {
			merged.Sub = append(merged.Sub, MergeProfile(column...))
		}
	}
	return merged
}
