package bot

import (
	"context"
	"errors"
	"fmt"

	"bilidyn/internal/detector"
	"bilidyn/internal/model"
	"bilidyn/internal/store"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the bilibili dynamics notifier!

Track creators and get their new dynamics rendered as cards.

Quick start:
1. /sub <uid> — follow a creator
2. /filter <uid> types=video,draw — only some dynamic types
3. /list — show what this chat follows

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Subscriptions:
/sub <uid> — follow a creator by their numeric uid
/unsub <uid> — stop following a creator
/list — show this chat's subscriptions

Filters:
/filter <uid> types=<t1,t2> — keep only these dynamic types
   types: forward, lottery, video, article, draw, live
/filter <uid> regex=<pattern> [regex=<pattern>...] — keep dynamics whose
   text matches at least one pattern
/filter <uid> clear — drop all filters

Administration:
/unsub_all <scope> — remove every subscription of one chat scope
/reload_templates — re-read card templates from disk`)
}

func (b *Bot) handleSub(ctx context.Context, chatID int64, key, args string) {
	ownerID, err := ParseOwnerID(args)
	if err != nil {
		b.reply(chatID, "Usage: /sub <uid>")
		return
	}

	if _, ok := b.store.Get(key, ownerID); ok {
		b.reply(chatID, fmt.Sprintf("Already subscribed to %d.", ownerID))
		return
	}

	sub := model.Subscription{OwnerID: ownerID}

	// Prime the dedup window with the creator's current head so the
	// next poll only announces dynamics published after this point.
	if batch, err := b.source.Dynamics(ctx, ownerID); err != nil {
		b.log.Warn("prime subscription", "owner", ownerID, "error", err)
	} else {
		n := len(batch)
		if n > model.RecentDynamicCache {
			n = model.RecentDynamicCache
		}
		for i := n - 1; i >= 0; i-- {
			sub.RecordDynamic(batch[i].ID)
		}
	}

	if err := b.store.Add(key, sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			b.reply(chatID, fmt.Sprintf("Already subscribed to %d.", ownerID))
			return
		}
		b.reply(chatID, fmt.Sprintf("Failed to save subscription: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("Subscribed to %d. New dynamics will be delivered here.", ownerID))
}

func (b *Bot) handleUnsub(chatID int64, key, args string) {
	ownerID, err := ParseOwnerID(args)
	if err != nil {
		b.reply(chatID, "Usage: /unsub <uid>")
		return
	}

	removed, err := b.store.Remove(key, ownerID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to remove subscription: %v", err))
		return
	}
	if !removed {
		b.reply(chatID, fmt.Sprintf("This chat does not follow %d.", ownerID))
		return
	}
	b.reply(chatID, fmt.Sprintf("Unsubscribed from %d.", ownerID))
}

func (b *Bot) handleList(chatID int64, key string) {
	subs, ok := b.store.ForSubscriber(key)
	if !ok {
		b.reply(chatID, "This chat has no subscriptions yet. Use /sub <uid> to add one.")
		return
	}
	b.reply(chatID, FormatSubscriptionList(subs))
}

func (b *Bot) handleFilter(chatID int64, key, args string) {
	fa, err := ParseFilterArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("%v", err))
		return
	}

	if err := detector.ValidateFilterTypes(fa.Types); err != nil {
		b.reply(chatID, fmt.Sprintf("%v", err))
		return
	}
	for _, pattern := range fa.Regex {
		if err := detector.ValidateRegex(pattern); err != nil {
			b.reply(chatID, fmt.Sprintf("%v", err))
			return
		}
	}

	ok, err := b.store.UpdateFilters(key, fa.OwnerID, fa.Types, fa.Regex)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to update filters: %v", err))
		return
	}
	if !ok {
		b.reply(chatID, fmt.Sprintf("This chat does not follow %d.", fa.OwnerID))
		return
	}

	if len(fa.Types) == 0 && len(fa.Regex) == 0 {
		b.reply(chatID, fmt.Sprintf("Filters cleared for %d.", fa.OwnerID))
		return
	}
	b.reply(chatID, fmt.Sprintf("Filters updated for %d.", fa.OwnerID))
}

func (b *Bot) handleUnsubAll(chatID int64, args string) {
	scope, err := ParseScopeArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unsub_all <scope>")
		return
	}

	res, err := b.store.RemoveAllForScope(scope)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to remove subscriptions: %v", err))
		return
	}
	b.reply(chatID, FormatScopeRemoval(res, scope))
}

func (b *Bot) handleReload(chatID int64) {
	if err := b.templates.Reload(); err != nil {
		b.reply(chatID, fmt.Sprintf("Template reload failed: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Templates reloaded: %v", b.templates.Styles()))
}
