package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/swrcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	StaleServedEvery uint64
	LoadDroppedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	staleCtr   atomic.Uint64
	droppedCtr atomic.Uint64
}

var _ swrcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StaleServed(storageKey string) {
	if h.l == nil || !sample(h.opts.StaleServedEvery, &h.staleCtr) {
		return
	}
	h.l.Debug("swrcache.stale_served",
		"key", h.redact(storageKey))
}

func (h *Hooks) RevalidateStarted(storageKey string, background bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("swrcache.revalidate_started",
		"key", h.redact(storageKey),
		"background", background)
}

func (h *Hooks) RevalidateFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("swrcache.revalidate_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) PlaceholderServed(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Debug("swrcache.placeholder_served",
		"key", h.redact(storageKey))
}

func (h *Hooks) LoadDropped(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.LoadDroppedEvery, &h.droppedCtr) {
		return
	}
	h.l.Info("swrcache.load_dropped",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) PersistError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("swrcache.persist_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) TagRevalidated(tag string, marked int) {
	if h.l == nil {
		return
	}
	h.l.Info("swrcache.tag_revalidated",
		"tag", tag,
		"marked", marked)
}
