package buildpipeline

import "sync/atomic"

// ChannelSink forwards events into a channel without ever blocking the
// build: when the channel is full the event is dropped and counted. The
// pipeline must not stall because a slow renderer stopped draining.
type ChannelSink struct {
	Ch      chan<- Event
	dropped atomic.Uint64
}

// OnEvent implements ProgressSink.
func (s *ChannelSink) OnEvent(evt Event) {
	if s == nil || s.Ch == nil {
		return
	}
	select {
	case s.Ch <- evt:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the channel was
// full.
func (s *ChannelSink) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}
