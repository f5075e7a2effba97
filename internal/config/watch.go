package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/bnema/waymap/internal/logger"
)

// Subscription is the handle for one device's config-change callback.
// It must be closed when the subscriber goes away; a closed
// subscription never fires again.
type Subscription struct {
	store     *Store
	deviceKey string
	id        int
}

// Close releases the subscription. Callbacks are delivered under the
// store lock, so Close blocks until any in-flight delivery completes;
// once it returns, the callback will not run again.
func (sub *Subscription) Close() {
	if sub == nil || sub.store == nil {
		return
	}
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()

	if callbacks, ok := sub.store.subs[sub.deviceKey]; ok {
		delete(callbacks, sub.id)
		if len(callbacks) == 0 {
			delete(sub.store.subs, sub.deviceKey)
			delete(sub.store.lastSeen, sub.deviceKey)
		}
	}
	sub.store = nil
}

// Subscribe registers a callback fired whenever the output override of
// the given device key changes on disk.
//
// The callback runs on the file watcher's goroutine, not on the
// subscriber's thread; subscribers that are not thread-safe must
// marshal the notification onto their own thread. The callback must
// not call Subscribe or Close on the same store.
func (s *Store) Subscribe(deviceKey string, callback func()) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[deviceKey] == nil {
		s.subs[deviceKey] = make(map[int]func())
		s.lastSeen[deviceKey] = s.OutputOverride(deviceKey)
	}
	s.nextID++
	s.subs[deviceKey][s.nextID] = callback

	s.ensureWatchingLocked()

	return &Subscription{store: s, deviceKey: deviceKey, id: s.nextID}
}

func (s *Store) ensureWatchingLocked() {
	if s.watching || s.v.ConfigFileUsed() == "" {
		return
	}
	s.watching = true

	s.v.OnConfigChange(func(in fsnotify.Event) {
		logger.Debugf("Config file changed: %s", in.Name)
		s.notifyChanged()
	})
	s.v.WatchConfig()
}

// notifyChanged fires the callbacks of every device whose override
// actually changed since the last event. Delivery happens with the
// lock held so that Close serializes against in-flight callbacks.
func (s *Store) notifyChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for deviceKey, callbacks := range s.subs {
		current := s.OutputOverride(deviceKey)
		if sliceEqual(current, s.lastSeen[deviceKey]) {
			continue
		}
		s.lastSeen[deviceKey] = current
		for _, cb := range callbacks {
			cb()
		}
	}
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
