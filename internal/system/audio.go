package system

import "sync"

// AudioSink plays decoded PCM/SMAF audio through the host (spec §4.10
// "platform callbacks (screen, audio sink, database repository,
// clock)"). Decoding the SMAF container itself is out of scope (spec
// Non-goals); the sink receives the raw compressed payload and is
// responsible for whatever playback path the host provides.
type AudioSink interface {
	Play(data []byte) error
}

// NullAudioSink discards playback requests, the default when no host
// audio backend is wired up.
type NullAudioSink struct{}

// Play implements AudioSink by doing nothing.
func (NullAudioSink) Play(data []byte) error { return nil }

// RecordingAudioSink remembers every played clip, in order, useful for
// tests and for a headless CLI run that wants to report "audio played"
// without an actual sound backend.
type RecordingAudioSink struct {
	mu    sync.Mutex
	clips [][]byte
}

// Play implements AudioSink by recording data.
func (s *RecordingAudioSink) Play(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = append(s.clips, append([]byte(nil), data...))
	return nil
}

// Clips returns every clip played so far, in order.
func (s *RecordingAudioSink) Clips() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.clips...)
}
