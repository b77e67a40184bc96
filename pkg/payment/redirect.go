// Package payment interprets the embedded payment page's navigation events
// and builds the redirect URL that hosts it. The page itself belongs to an
// external payment provider; the only contract is the markers it puts in its
// return URLs.
package payment

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// SignalKind classifies a navigation event from the payment page
type SignalKind string

const (
	// SignalPending means the page is still loading or navigating internally.
	SignalPending SignalKind = "pending"
	// SignalSucceeded means the provider redirected to its success/callback URL.
	SignalSucceeded SignalKind = "succeeded"
	// SignalFailed means the provider redirected to its error/failure URL.
	SignalFailed SignalKind = "failed"
)

// Signal is the outcome of classifying one navigation event.
type Signal struct {
	Kind    SignalKind
	OrderID string
	Reason  string // populated for failures
}

// Classify maps a raw navigation URL onto a payment signal. URLs that carry
// neither a success nor a failure marker are in-page navigation and produce
// SignalPending.
func Classify(rawURL string) SignalKind {
	lowered := strings.ToLower(rawURL)
	if strings.Contains(lowered, "success") || strings.Contains(lowered, "callback") {
		return SignalSucceeded
	}
	if strings.Contains(lowered, "error") || strings.Contains(lowered, "failed") {
		return SignalFailed
	}
	return SignalPending
}

// BuildRedirectURL produces the provider iframe URL embedding the payment
// key obtained from the booking service.
func BuildRedirectURL(iframeURL, paymentKey string) string {
	return fmt.Sprintf("%s?payment_token=%s", iframeURL, url.QueryEscape(paymentKey))
}

// RedirectWatcher folds a stream of navigation events into at most one
// terminal signal for a single order. Page load failures are reported
// separately because the payment page is allowed to be reloaded without
// discarding the booking session.
type RedirectWatcher struct {
	orderID string

	mu         sync.Mutex
	terminal   *Signal
	loadErrors int
}

// NewRedirectWatcher creates a watcher bound to the given order.
func NewRedirectWatcher(orderID string) *RedirectWatcher {
	return &RedirectWatcher{orderID: orderID}
}

// OnNavigate consumes one navigation event. It returns the terminal signal
// and true the first time a success or failure marker is seen; every event
// after that, and every pending event, returns false.
func (w *RedirectWatcher) OnNavigate(rawURL string) (Signal, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminal != nil {
		return Signal{}, false
	}

	switch Classify(rawURL) {
	case SignalSucceeded:
		w.terminal = &Signal{Kind: SignalSucceeded, OrderID: w.orderID}
	case SignalFailed:
		w.terminal = &Signal{Kind: SignalFailed, OrderID: w.orderID, Reason: rawURL}
	default:
		return Signal{}, false
	}

	return *w.terminal, true
}

// OnLoadError records a page load failure. These are retriable: the caller
// should reload the page, and the watcher keeps accepting events.
func (w *RedirectWatcher) OnLoadError() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadErrors++
	return w.loadErrors
}

// Done reports whether a terminal signal has been emitted.
func (w *RedirectWatcher) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminal != nil
}
