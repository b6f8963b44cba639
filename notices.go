package orgvclient

import (
	"log/slog"
	"sync"
	"time"
)

// NoticeLevel ranks user-visible notices.
type NoticeLevel uint8

const (
	// NoticeInfo is an informational notice.
	NoticeInfo NoticeLevel = iota
	// NoticeSuccess confirms a completed action.
	NoticeSuccess
	// NoticeWarning flags a recoverable condition (e.g. challenge expiry).
	NoticeWarning
	// NoticeError flags a failed action.
	NoticeError
)

// Fixed identity tags for failure classes that must never stack duplicate
// notices.
const (
	noticeIDNetworkError       = "network-error"
	noticeIDServiceUnavailable = "service-unavailable"
	noticeIDSessionExpired     = "session-expired"
)

// Notifier receives user-visible notices. Implementations render them (the
// console prints, a test records). ID is a stable identity tag for notices
// subject to deduplication; it is empty for one-off notices.
type Notifier interface {
	Notify(level NoticeLevel, id, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(level NoticeLevel, id, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level NoticeLevel, id, message string) {
	f(level, id, message)
}

// noticeCenter fans notices out to the configured Notifier while suppressing
// repeats: a notice with a non-empty id is dropped when the same id fired
// within the dedup window. Exactly one notice per distinct failure event.
type noticeCenter struct {
	sink   Notifier
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func newNoticeCenter(sink Notifier, window time.Duration, logger *slog.Logger) *noticeCenter {
	if sink == nil {
		sink = slogNotifier(logger)
	}
	return &noticeCenter{
		sink:   sink,
		window: window,
		now:    time.Now,
		last:   map[string]time.Time{},
	}
}

func (n *noticeCenter) notify(level NoticeLevel, id, message string) {
	if id != "" {
		n.mu.Lock()
		at, seen := n.last[id]
		now := n.now()
		if seen && now.Sub(at) < n.window {
			n.mu.Unlock()
			return
		}
		n.last[id] = now
		n.mu.Unlock()
	}
	n.sink.Notify(level, id, message)
}

func (n *noticeCenter) info(message string)    { n.notify(NoticeInfo, "", message) }
func (n *noticeCenter) success(message string) { n.notify(NoticeSuccess, "", message) }
func (n *noticeCenter) warning(message string) { n.notify(NoticeWarning, "", message) }
func (n *noticeCenter) errorf(message string)  { n.notify(NoticeError, "", message) }

// slogNotifier is the default sink: notices become structured log lines.
func slogNotifier(logger *slog.Logger) Notifier {
	return NotifierFunc(func(level NoticeLevel, id, message string) {
		attrs := []any{}
		if id != "" {
			attrs = append(attrs, "id", id)
		}
		switch level {
		case NoticeError:
			logger.Error(message, attrs...)
		case NoticeWarning:
			logger.Warn(message, attrs...)
		default:
			logger.Info(message, attrs...)
		}
	})
}
