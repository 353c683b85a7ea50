// Package scheduler drives the poll loop: fetch each tracked owner once per
// tick, detect new dynamics per subscriber and deliver rendered cards.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilidyn/internal/bot"
	"bilidyn/internal/detector"
	"bilidyn/internal/model"
	"bilidyn/internal/render"
	"bilidyn/internal/store"
)

// Rate limit: ~20 messages/sec max for Telegram.
const sendInterval = 50 * time.Millisecond

// Source fetches an owner's current upstream state.
type Source interface {
	Dynamics(ctx context.Context, ownerID int64) ([]*model.Dynamic, error)
	LiveStatus(ctx context.Context, ownerID int64) (bool, error)
}

// Sender delivers rendered cards and plain notices to subscriber keys.
type Sender interface {
	SendPhoto(subscriber string, photo []byte, caption string) error
	SendMessage(subscriber string, text string) error
}

// Pipeline turns a dynamic into a card image.
type Pipeline interface {
	BuildRenderData(item *model.Dynamic, isForward bool) *render.Model
	Render(ctx context.Context, data *render.Model, style string) ([]byte, error)
}

// Scheduler periodically checks tracked owners and sends notifications.
type Scheduler struct {
	store         store.Store
	source        Source
	detector      *detector.Detector
	pipeline      Pipeline
	sender        Sender
	log           *slog.Logger
	tick          time.Duration
	renderTimeout time.Duration
}

// New creates a Scheduler with a 5-minute tick.
func New(st store.Store, source Source, det *detector.Detector, pipeline Pipeline, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:         st,
		source:        source,
		detector:      det,
		pipeline:      pipeline,
		sender:        sender,
		log:           log,
		tick:          5 * time.Minute,
		renderTimeout: 30 * time.Second,
	}
}

// SetTickInterval overrides the default 5-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

// target is one subscriber's subscription to the owner being checked.
type target struct {
	key string
	sub model.Subscription
}

// checkAll groups the registry by owner so each owner is fetched once per
// tick no matter how many chats follow them.
func (s *Scheduler) checkAll(ctx context.Context) {
	owners := map[int64][]target{}
	for key, subs := range s.store.All() {
		for _, sub := range subs {
			owners[sub.OwnerID] = append(owners[sub.OwnerID], target{key: key, sub: sub})
		}
	}

	for ownerID, targets := range owners {
		if ctx.Err() != nil {
			return
		}
		s.checkOwner(ctx, ownerID, targets)
	}
}

func (s *Scheduler) checkOwner(ctx context.Context, ownerID int64, targets []target) {
	s.log.Debug("checking owner", "owner", ownerID, "subscribers", len(targets))

	batch, err := s.source.Dynamics(ctx, ownerID)
	if err != nil {
		s.log.Error("fetch dynamics", "owner", ownerID, "error", err)
	} else {
		// Evaluate only the feed head, oldest first. The dedup window
		// remembers RecentDynamicCache ids; a longer tail would push
		// head ids out of the window and re-announce the whole page on
		// every tick. Oldest-first processing announces chronologically
		// and leaves the newest id at the front of the window.
		if len(batch) > model.RecentDynamicCache {
			batch = batch[:model.RecentDynamicCache]
		}
		head := make([]*model.Dynamic, len(batch))
		for i, item := range batch {
			head[len(batch)-1-i] = item
		}
		for _, t := range targets {
			sub := t.sub
			emitted, err := s.detector.Process(t.key, &sub, head, func(item *model.Dynamic) error {
				return s.deliver(ctx, t.key, item)
			})
			if err != nil {
				s.log.Error("process batch", "owner", ownerID, "subscriber", t.key, "error", err)
			}
			if emitted > 0 {
				s.log.Info("sent dynamics", "owner", ownerID, "subscriber", t.key, "count", emitted)
			}
		}
	}

	live, err := s.source.LiveStatus(ctx, ownerID)
	if err != nil {
		s.log.Error("fetch live status", "owner", ownerID, "error", err)
		return
	}
	for _, t := range targets {
		sub := t.sub
		changed, err := s.detector.LiveTransition(t.key, &sub, live)
		if err != nil {
			s.log.Error("live transition", "owner", ownerID, "subscriber", t.key, "error", err)
			continue
		}
		if !changed || !allowsLive(&sub) {
			continue
		}
		if err := s.sender.SendMessage(t.key, bot.FormatLiveNotice(ownerID, live)); err != nil {
			s.log.Error("send live notice", "owner", ownerID, "subscriber", t.key, "error", err)
		}
	}
}

// deliver renders one dynamic and sends the card to a subscriber. The
// render gets its own deadline so a stuck backend cannot stall the tick.
func (s *Scheduler) deliver(ctx context.Context, key string, item *model.Dynamic) error {
	data := s.pipeline.BuildRenderData(item, false)

	rctx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	photo, err := s.pipeline.Render(rctx, data, "")
	if err != nil {
		return fmt.Errorf("render dynamic %s: %w", item.ID, err)
	}

	if err := s.sender.SendPhoto(key, photo, bot.FormatCaption(item)); err != nil {
		return err
	}
	time.Sleep(sendInterval)
	return nil
}

// allowsLive reports whether the subscription's type filter keeps live
// notices. An empty filter keeps everything.
func allowsLive(sub *model.Subscription) bool {
	if len(sub.FilterTypes) == 0 {
		return true
	}
	for _, t := range sub.FilterTypes {
		if t == "live" {
			return true
		}
	}
	return false
}
