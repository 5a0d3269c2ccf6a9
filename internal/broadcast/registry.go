package broadcast

import (
	"sync"

	"github.com/yaxxerr/ai-security-system/internal/metrics"
)

// Registry is the thread-safe mapping from channel name to the set of member
// sessions. Channels are created lazily on first Join and dropped when the
// last member leaves; an empty channel and an unknown one are
// indistinguishable. The lock is held only for
// map mutation and snapshotting, never while subscriber code runs.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]map[*Session]struct{}),
	}
}

// Join adds a session to a channel, creating the channel if needed.
// Joining a channel the session already belongs to is a no-op.
func (r *Registry) Join(channel string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channel]
	if !ok {
		members = make(map[*Session]struct{})
		r.channels[channel] = members
	}
	if _, ok := members[s]; ok {
		return
	}
	members[s] = struct{}{}
	metrics.BroadcastSubscribedSessions.Inc()
	r.updateChannelGauge()
}

// Leave removes a session from a channel. Leaving a channel the session does
// not belong to is a no-op, so teardown is idempotent on every exit path.
func (r *Registry) Leave(channel string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channel]
	if !ok {
		return
	}
	if _, ok := members[s]; !ok {
		return
	}
	delete(members, s)
	metrics.BroadcastSubscribedSessions.Dec()
	if len(members) == 0 {
		delete(r.channels, channel)
	}
	r.updateChannelGauge()
}

// Members returns a point-in-time copy of the channel's member set. The copy
// never races with concurrent Join/Leave; an unknown channel yields an empty
// slice.
func (r *Registry) Members(channel string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.channels[channel]
	snapshot := make([]*Session, 0, len(members))
	for s := range members {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// MemberCount returns the current number of sessions on a channel.
func (r *Registry) MemberCount(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}

// Sessions returns a deduplicated snapshot of every session currently joined
// to any channel. Used for shutdown.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*Session]struct{})
	var sessions []*Session
	for _, members := range r.channels {
		for s := range members {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			sessions = append(sessions, s)
		}
	}
	return sessions
}

// updateChannelGauge must be called with mu held.
func (r *Registry) updateChannelGauge() {
	metrics.BroadcastActiveChannels.Set(float64(len(r.channels)))
}
