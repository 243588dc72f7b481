// Package pulse implements the activity-feed domain rules: hot-job
// detection, comment edit/delete eligibility, and the activity glyph
// mapping. It also owns the dashboard snapshot refresher.
package pulse

import (
	"fmt"
	"time"

	"github.com/CodyCMAC/cmac-jobforge/internal/display"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
)

const (
	// hotWindow is the sliding window over which activity density is measured.
	hotWindow = 24 * time.Hour
	// hotThreshold is the entry count at which a job counts as hot.
	hotThreshold = 3

	// editWindow bounds how long a comment stays editable by its author.
	editWindow = 5 * time.Minute

	// summaryMax bounds the comment preview embedded in activity summaries.
	summaryMax = 50
)

// HotJobIDs returns the ids of jobs with at least hotThreshold activity
// entries inside the hotWindow ending at now. Recomputed from the loaded
// entries on every call, never persisted.
func HotJobIDs(entries []models.Activity, now time.Time) map[string]bool {
	cutoff := now.Add(-hotWindow).UnixMilli()
	counts := make(map[string]int)
	hot := make(map[string]bool)
	for _, a := range entries {
		if a.Created <= cutoff {
			continue
		}
		counts[a.JobID]++
		if counts[a.JobID] >= hotThreshold {
			hot[a.JobID] = true
		}
	}
	return hot
}

// CanEdit reports whether userID may edit the comment at instant now:
// author only, and only within editWindow of creation.
func CanEdit(c *models.Comment, userID string, now time.Time) bool {
	if c == nil || userID == "" || c.AuthorUserID != userID {
		return false
	}
	return now.Before(time.UnixMilli(c.Created).Add(editWindow))
}

// CanDelete reports whether userID may soft-delete the comment: author
// only, with no time bound.
func CanDelete(c *models.Comment, userID string) bool {
	return c != nil && userID != "" && c.AuthorUserID == userID
}

// Glyph is the icon/tone pair a feed entry renders with.
type Glyph struct {
	Icon string `json:"icon"`
	Tone string `json:"tone"`
}

// GlyphFor maps an activity type to its glyph. Total over all inputs:
// anything outside the known enumeration gets the generic fallback.
func GlyphFor(t models.ActivityType) Glyph {
	switch t {
	case models.ActivityCommentCreated:
		return Glyph{Icon: "message-square", Tone: display.TonePrimary}
	case models.ActivityStatusChanged:
		return Glyph{Icon: "refresh-cw", Tone: display.ToneWarning}
	case models.ActivityAssignedChanged:
		return Glyph{Icon: "user-check", Tone: display.ToneAccent}
	case models.ActivityJobCreated:
		return Glyph{Icon: "plus-circle", Tone: display.ToneSuccess}
	case models.ActivityTaskCompleted:
		return Glyph{Icon: "check-square", Tone: display.ToneSuccess}
	case models.ActivityProposalCreated:
		return Glyph{Icon: "file-text", Tone: display.TonePrimary}
	case models.ActivityProposalSent:
		return Glyph{Icon: "send", Tone: display.TonePrimary}
	case models.ActivityProposalSigned:
		return Glyph{Icon: "pen-line", Tone: display.ToneSuccess}
	default:
		return Glyph{Icon: "activity", Tone: display.ToneMuted}
	}
}

// CommentSummary builds the feed line for a new comment: the author's name
// and a preview of the body, truncated to summaryMax runes with an ellipsis
// marker only when cut.
func CommentSummary(authorName, body string) string {
	return fmt.Sprintf(`%s commented: "%s"`, authorName, display.Snippet(body, summaryMax))
}
