// Package broadcast implements the real-time event fan-out core.
//
// Producers hand the Router an immutable Envelope after a committed write; the
// Router snapshots the target channel's members from the Registry and pushes the
// encoded frame onto each Session's bounded outbound queue. Per-session writer
// goroutines drain the queues independently, so one slow client never delays
// delivery to the others. A session whose queue overflows or whose transport
// fails is detached and closed without the producer ever seeing an error.
package broadcast
