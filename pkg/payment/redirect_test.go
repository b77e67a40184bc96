package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   SignalKind
	}{
		{
			name:   "success marker",
			rawURL: "https://provider.example.com/payment/success?order=1",
			want:   SignalSucceeded,
		},
		{
			name:   "callback marker",
			rawURL: "https://merchant.example.com/api/acceptance/post_pay?callback=1",
			want:   SignalSucceeded,
		},
		{
			name:   "error marker",
			rawURL: "https://provider.example.com/payment/error",
			want:   SignalFailed,
		},
		{
			name:   "failed marker",
			rawURL: "https://provider.example.com/checkout?status=failed",
			want:   SignalFailed,
		},
		{
			name:   "uppercase markers",
			rawURL: "https://provider.example.com/payment/SUCCESS",
			want:   SignalSucceeded,
		},
		{
			name:   "in-page navigation",
			rawURL: "https://provider.example.com/checkout/3ds-challenge",
			want:   SignalPending,
		},
		{
			name:   "empty url",
			rawURL: "",
			want:   SignalPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.rawURL))
		})
	}
}

func TestBuildRedirectURL(t *testing.T) {
	got := BuildRedirectURL("https://accept.paymob.com/api/acceptance/iframes/42", "key+with/specials")
	assert.Equal(t, "https://accept.paymob.com/api/acceptance/iframes/42?payment_token=key%2Bwith%2Fspecials", got)
}

func TestRedirectWatcherEmitsOneTerminalSignal(t *testing.T) {
	watcher := NewRedirectWatcher("O1")

	_, terminal := watcher.OnNavigate("https://provider.example.com/checkout")
	assert.False(t, terminal)
	assert.False(t, watcher.Done())

	signal, terminal := watcher.OnNavigate("https://provider.example.com/payment/success")
	require.True(t, terminal)
	assert.Equal(t, SignalSucceeded, signal.Kind)
	assert.Equal(t, "O1", signal.OrderID)
	assert.True(t, watcher.Done())

	// Later navigations, even conflicting ones, are swallowed.
	_, terminal = watcher.OnNavigate("https://provider.example.com/payment/error")
	assert.False(t, terminal)
	_, terminal = watcher.OnNavigate("https://provider.example.com/payment/success")
	assert.False(t, terminal)
}

func TestRedirectWatcherFailureCarriesReason(t *testing.T) {
	watcher := NewRedirectWatcher("O1")

	signal, terminal := watcher.OnNavigate("https://provider.example.com/payment/error?code=declined")
	require.True(t, terminal)
	assert.Equal(t, SignalFailed, signal.Kind)
	assert.Equal(t, "https://provider.example.com/payment/error?code=declined", signal.Reason)
}

func TestRedirectWatcherLoadErrorsAreRetriable(t *testing.T) {
	watcher := NewRedirectWatcher("O1")

	assert.Equal(t, 1, watcher.OnLoadError())
	assert.Equal(t, 2, watcher.OnLoadError())
	assert.False(t, watcher.Done())

	// The page recovered after a reload; the watcher still accepts events.
	_, terminal := watcher.OnNavigate("https://provider.example.com/payment/success")
	assert.True(t, terminal)
}
