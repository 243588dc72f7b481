// Package display holds the pure row-to-view transforms: currency and
// relative-time formatting, job age classification, and status badge
// tokens. Everything here is deterministic and side-effect free; callers
// pass the current instant explicitly.
package display

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Style tokens understood by the front-end theme. Unknown inputs always map
// to ToneNeutral.
const (
	TonePrimary     = "primary"
	ToneSuccess     = "success"
	ToneWarning     = "warning"
	ToneDestructive = "destructive"
	ToneAccent      = "accent"
	ToneMuted       = "muted"
	ToneNeutral     = "neutral"
)

// Currency renders a dollar amount with comma grouping and two decimals.
// Negative and NaN amounts render as $0.00.
func Currency(v float64) string {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	cents := int64(math.Round(v * 100))
	return fmt.Sprintf("$%s.%02d", humanize.Comma(cents/100), cents%100)
}

// TimeAgo produces a coarse relative label for the gap between t and now.
// The label depends only on the gap, so it is stable for a fixed gap and
// coarsens monotonically as the gap grows.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	default:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/(24*30)))
	}
}

// AgeBucket classifies a job by time since its last update. Buckets are
// ordered: a larger value means a staler job.
type AgeBucket int

const (
	AgeFresh AgeBucket = iota
	AgeNeedsAttention
	AgeStale
)

const (
	freshCutoff = 48 * time.Hour
	staleCutoff = 96 * time.Hour
)

// AgeIndicator is the severity band shown on a job card.
type AgeIndicator struct {
	Bucket AgeBucket `json:"-"`
	Label  string    `json:"label"`
	Tone   string    `json:"tone"`
}

func Age(updatedAt, now time.Time) AgeIndicator {
	since := now.Sub(updatedAt)
	switch {
	case since < freshCutoff:
		return AgeIndicator{Bucket: AgeFresh, Label: "On track", Tone: ToneSuccess}
	case since < staleCutoff:
		return AgeIndicator{Bucket: AgeNeedsAttention, Label: "Needs attention", Tone: ToneWarning}
	default:
		return AgeIndicator{Bucket: AgeStale, Label: "Gone cold", Tone: ToneDestructive}
	}
}

// ProposalBadge maps a proposal status to a style token. Unknown statuses
// fail closed to neutral.
func ProposalBadge(status string) string {
	switch status {
	case "draft":
		return ToneMuted
	case "sent":
		return TonePrimary
	case "viewed":
		return ToneWarning
	case "signed":
		return ToneSuccess
	default:
		return ToneNeutral
	}
}

// StatusBadge maps a pipeline stage to a style token. Unknown statuses fail
// closed to neutral.
func StatusBadge(status string) string {
	switch status {
	case "new":
		return ToneAccent
	case "scheduled":
		return TonePrimary
	case "sent":
		return TonePrimary
	case "signed":
		return ToneSuccess
	case "production":
		return ToneWarning
	case "complete":
		return ToneSuccess
	default:
		return ToneNeutral
	}
}

// Initials derives up to two uppercase initials from a display name.
// Blank names yield "U" (unknown user).
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			n++
			break
		}
		if n >= 2 {
			break
		}
	}
	if n == 0 {
		return "U"
	}
	return b.String()
}

// Snippet truncates s to max runes, appending an ellipsis marker only when
// something was cut.
func Snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
