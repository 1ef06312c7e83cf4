package audio_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestFloat32ToPCM16(t *testing.T) {
	t.Parallel()
	got := audio.Float32ToPCM16([]float32{0, 0.5, 1.0, -1.0, 2.0, -2.0})
	want := pcm16(0, 16384, math.MaxInt16, math.MinInt16, math.MaxInt16, math.MinInt16)
	if !bytes.Equal(got, want) {
		t.Errorf("Float32ToPCM16 = %v, want %v", got, want)
	}
}

func TestDuck(t *testing.T) {
	t.Parallel()
	in := pcm16(1000, -1000, 0)

	if got := audio.Duck(in, 1.0); !bytes.Equal(got, in) {
		t.Errorf("unity gain changed samples: %v", got)
	}
	if got := audio.Duck(in, 0.5); !bytes.Equal(got, pcm16(500, -500, 0)) {
		t.Errorf("half gain = %v, want [500 -500 0]", got)
	}
	if got := audio.Duck(in, -3); !bytes.Equal(got, pcm16(0, 0, 0)) {
		t.Errorf("negative gain = %v, want silence", got)
	}
}

func TestRMS(t *testing.T) {
	t.Parallel()
	if got := audio.RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	if got := audio.RMS(pcm16(0, 0, 0, 0)); got != 0 {
		t.Errorf("RMS(silence) = %v, want 0", got)
	}

	full := audio.RMS(pcm16(math.MinInt16, math.MinInt16))
	if full < 0.99 || full > 1.01 {
		t.Errorf("RMS(full scale) = %v, want ~1", full)
	}

	quiet := audio.RMS(pcm16(100, -100))
	loud := audio.RMS(pcm16(10000, -10000))
	if quiet >= loud {
		t.Errorf("RMS ordering: quiet %v >= loud %v", quiet, loud)
	}
}

func TestSilence(t *testing.T) {
	t.Parallel()
	got := audio.Silence(100*time.Millisecond, 16000)
	if len(got) != 3200 {
		t.Errorf("len = %d, want 3200 (1600 samples)", len(got))
	}
	for _, b := range got {
		if b != 0 {
			t.Fatal("silence contains non-zero bytes")
		}
	}
	if got := audio.Silence(-time.Second, 16000); len(got) != 0 {
		t.Errorf("negative duration len = %d, want 0", len(got))
	}
}

func TestFrameDuration(t *testing.T) {
	t.Parallel()
	f := audio.AudioFrame{Data: make([]byte, 3200), SampleRate: 16000, Channels: 1}
	if got := f.Duration(); got != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", got)
	}

	stereo := audio.AudioFrame{Data: make([]byte, 3200), SampleRate: 16000, Channels: 2}
	if got := stereo.Duration(); got != 50*time.Millisecond {
		t.Errorf("stereo Duration = %v, want 50ms", got)
	}

	var zero audio.AudioFrame
	if got := zero.Duration(); got != 0 {
		t.Errorf("zero frame Duration = %v, want 0", got)
	}
}

func TestWriterSink(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	sink := audio.NewWriterSink(&buf)

	frame := audio.AudioFrame{Data: []byte{1, 2, 3, 4}, SampleRate: 16000, Channels: 1}
	if err := sink.Write(frame); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), frame.Data) {
		t.Errorf("written = %v, want %v", buf.Bytes(), frame.Data)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Writes after Close are dropped, not errors.
	if err := sink.Write(frame); err != nil {
		t.Errorf("Write after Close = %v, want nil", err)
	}
	if buf.Len() != 4 {
		t.Errorf("buffer grew after Close: %d bytes", buf.Len())
	}
}
