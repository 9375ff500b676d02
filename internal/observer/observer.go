// Package observer turns raw document clicks into deduplicated link-clicked
// messages for the coordinator.
package observer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nikbrunner/autobm/internal/messaging"
)

// IndicatorID is the element id of the injected on-page indicator.
const IndicatorID = "autobm-indicator"

// Observer handles document-level clicks for one page.
type Observer struct {
	sender    messaging.Sender
	doc       Document
	recent    *RecentClicks
	surfaceID string
	logger    *slog.Logger
}

// Option configures an Observer.
type Option func(*Observer)

// WithClock sets the clock used for deduplication.
func WithClock(now func() time.Time) Option {
	return func(o *Observer) {
		o.recent = NewRecentClicks(DedupeWindow, now)
	}
}

// WithOwnSurface ignores clicks whose path passes through the element with
// this id, such as an injected indicator.
func WithOwnSurface(id string) Option {
	return func(o *Observer) {
		o.surfaceID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Observer for doc that emits through sender.
func New(sender messaging.Sender, doc Document, opts ...Option) *Observer {
	o := &Observer{
		sender: sender,
		doc:    doc,
		recent: NewRecentClicks(DedupeWindow, time.Now),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnDocumentClick handles a click and reports whether a message was emitted.
// Delivery failures are logged and otherwise ignored.
func (o *Observer) OnDocumentClick(ctx context.Context, ev ClickEvent) bool {
	if o.surfaceID != "" && pathContainsID(ev.Path, o.surfaceID) {
		return false
	}

	link := FindLink(ev)
	if link == nil {
		return false
	}

	href := link.Href()
	if !messaging.IsNetworkURL(href) {
		return false
	}
	if o.recent.Seen(href) {
		o.logger.Debug("click suppressed", slog.String("url", href))
		return false
	}

	title := o.extractTitle(link)
	if err := o.sender.Send(ctx, messaging.LinkClicked(href, title)); err != nil {
		level := slog.LevelWarn
		if messaging.IsDeliveryFailure(err) {
			level = slog.LevelDebug
		}
		o.logger.Log(ctx, level, "link-clicked not delivered",
			slog.String("url", href),
			slog.String("error", err.Error()))
	}
	return true
}

// extractTitle prefers the link's own text and falls back to the page title.
func (o *Observer) extractTitle(link Link) string {
	if text := CollapseSpace(link.Text()); text != "" {
		return text
	}
	if o.doc == nil {
		return ""
	}
	return o.doc.Title()
}

// CollapseSpace replaces runs of whitespace with a single space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
