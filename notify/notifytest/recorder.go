// Package notifytest は通知を記録するテスト用の Surface
package notifytest

import (
	"sync"
	"time"

	"nft-marketplace-onchain/model"
)

type Recorder struct {
	mu          sync.Mutex
	Toasts      []model.Notification
	Navigations []string
	navigated   chan string
}

func NewRecorder() *Recorder {
	return &Recorder{navigated: make(chan string, 8)}
}

func (r *Recorder) add(kind model.NotificationKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Toasts = append(r.Toasts, model.Notification{Kind: kind, Message: message})
}

func (r *Recorder) Loading(message string) { r.add(model.NotifyLoading, message) }
func (r *Recorder) Success(message string) { r.add(model.NotifySuccess, message) }
func (r *Recorder) Error(message string)   { r.add(model.NotifyError, message) }
func (r *Recorder) Dismiss()               { r.add(model.NotifyDismiss, "") }
func (r *Recorder) Alert(message string)   { r.add(model.NotifyAlert, message) }

func (r *Recorder) Navigate(route string) {
	r.mu.Lock()
	r.Navigations = append(r.Navigations, route)
	r.mu.Unlock()
	r.navigated <- route
}

// Of は kind の通知だけを返す
func (r *Recorder) Of(kind model.NotificationKind) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.Toasts {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// NavigationCount は遷移回数
func (r *Recorder) NavigationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Navigations)
}

// WaitNavigation は遷移を timeout まで待つ
func (r *Recorder) WaitNavigation(timeout time.Duration) (string, bool) {
	select {
	case route := <-r.navigated:
		return route, true
	case <-time.After(timeout):
		return "", false
	}
}
