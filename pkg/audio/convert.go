package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Float32ToPCM16 converts normalised float32 samples ([-1, 1]) to 16-bit
// little-endian PCM. Samples outside the normalised range are clipped.
func Float32ToPCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(s * 32768)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v)))
	}
	return pcm
}

// Duck returns a copy of 16-bit PCM attenuated to the given gain (0 mutes,
// 1 passes through unchanged). Used to suppress acoustic echo while local
// playback is active without muting genuine user interruption.
func Duck(pcm []byte, gain float64) []byte {
	if gain >= 1 {
		return pcm
	}
	if gain < 0 {
		gain = 0
	}
	out := make([]byte, len(pcm)&^1)
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(float64(s)*gain)))
	}
	return out
}

// RMS computes the root-mean-square energy of 16-bit PCM, normalised to
// [0, 1]. Energy above a small threshold while ducked indicates the user is
// talking over the system.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// Silence returns d worth of silent mono 16-bit PCM at the given sample rate.
// Used as the watchdog's minimal nudge payload.
func Silence(d time.Duration, sampleRate int) []byte {
	samples := int(d * time.Duration(sampleRate) / time.Second)
	if samples < 0 {
		samples = 0
	}
	return make([]byte, samples*2)
}
