package bot

import (
	"fmt"
	"strings"

	"bilidyn/internal/model"
	"bilidyn/internal/store"
)

// FormatSubscriptionList formats one chat's subscriptions for display.
func FormatSubscriptionList(subs []model.Subscription) string {
	if len(subs) == 0 {
		return "This chat has no subscriptions yet. Use /sub <uid> to add one."
	}

	var b strings.Builder
	b.WriteString("Subscriptions:\n")
	for _, sub := range subs {
		fmt.Fprintf(&b, "\n%d", sub.OwnerID)
		if sub.IsLive {
			b.WriteString("  [live]")
		}
		b.WriteString("\n")
		if len(sub.FilterTypes) > 0 {
			fmt.Fprintf(&b, "   types: %s\n", strings.Join(sub.FilterTypes, ", "))
		}
		if len(sub.FilterRegex) > 0 {
			fmt.Fprintf(&b, "   regex: %s\n", strings.Join(sub.FilterRegex, " | "))
		}
		if len(sub.FilterTypes) == 0 && len(sub.FilterRegex) == 0 {
			b.WriteString("   no filters\n")
		}
	}
	return b.String()
}

// FormatCaption builds the short caption accompanying a rendered card.
func FormatCaption(item *model.Dynamic) string {
	var what string
	switch item.Kind {
	case model.KindVideo:
		what = "posted a new video"
		if item.Video != nil && item.Video.Title != "" {
			what += ": " + item.Video.Title
		}
	case model.KindArticle:
		what = "published an article"
		if item.Opus != nil && item.Opus.Title != "" {
			what += ": " + item.Opus.Title
		}
	case model.KindForward:
		what = "forwarded a dynamic"
	default:
		what = "posted a new dynamic"
	}
	return fmt.Sprintf("%s %s\nhttps://t.bilibili.com/%s", item.Author.Name, what, item.ID)
}

// FormatLiveNotice formats a live-status transition message.
func FormatLiveNotice(ownerID int64, live bool) string {
	if live {
		return fmt.Sprintf("Creator %d is now live: https://live.bilibili.com/%d", ownerID, ownerID)
	}
	return fmt.Sprintf("Creator %d has ended the stream.", ownerID)
}

// FormatScopeRemoval describes a bulk removal result distinctly for
// success, not-found and ambiguous outcomes.
func FormatScopeRemoval(res store.ScopeRemoval, scope string) string {
	switch res.Outcome {
	case store.ScopeRemoved:
		return fmt.Sprintf("Removed all subscriptions of %s.", res.Removed)
	case store.ScopeAmbiguous:
		return fmt.Sprintf("Multiple subscribers match %s:\n%s\nRepeat the command with the full subscriber key.",
			scope, strings.Join(res.Candidates, "\n"))
	default:
		return fmt.Sprintf("No subscriber matches %s.", scope)
	}
}
