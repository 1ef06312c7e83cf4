// Package audio defines the frame type and device abstractions used by the
// voice pipelines.
//
// The two device-side abstractions are:
//
//   - [CaptureDevice] — acquires one audio input stream (microphone) and
//     delivers 16-bit PCM frames on a channel.
//   - [OutputSink] — accepts synthesised PCM frames for playback.
//
// Implementations wrap platform audio stacks; the interfaces are intentionally
// narrow so the session controller stays decoupled from device details.
//
// This package lives under pkg/ because external device adapters are expected
// to implement [CaptureDevice] and [OutputSink].
package audio

import "time"

// AudioFrame represents a single frame of 16-bit little-endian PCM audio
// flowing through the pipeline. Frames are the atomic unit of transport:
// captured from input devices, streamed to the duplex transport, and
// scheduled for playback.
type AudioFrame struct {
	// Data is int16 little-endian PCM. Sample rate and channel count are
	// carried alongside rather than assumed.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for capture, 24000 for studio playback).
	SampleRate int

	// Channels: 1 for mono capture, 2 for stereo playback.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the playback duration of the frame's PCM payload.
func (f AudioFrame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 || len(f.Data) < 2 {
		return 0
	}
	samples := len(f.Data) / 2 / f.Channels
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}
