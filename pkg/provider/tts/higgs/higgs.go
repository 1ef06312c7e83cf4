// Package higgs provides the local fallback TTS engine backed by a Higgs
// Audio server's REST API. It implements the tts.Engine interface.
//
// Synthesis is performed via GET /api/tts with URL query parameters; the WAV
// response is stripped of its RIFF container and the raw PCM is returned.
// Reachability is checked via GET /details. The server runs on the local
// network, so it has no quota — failures are either transient (connection,
// 5xx) or fatal (4xx).
//
// Typical usage:
//
//	e, err := higgs.New("http://localhost:5002",
//	    higgs.WithSpeaker("belinda"),
//	    higgs.WithTimeout(15*time.Second),
//	)
//	pcm, err := e.Render(ctx, "Hello.", m)
package higgs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
)

// Compile-time interface assertions.
var (
	_ tts.Engine = (*Engine)(nil)
	_ tts.Pinger = (*Engine)(nil)
)

const (
	// EngineName identifies this engine in logs, metrics and chunk provenance.
	EngineName = "higgs"

	defaultTimeout  = 30 * time.Second
	ttsEndpoint     = "/api/tts"
	detailsEndpoint = "/details"
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithSpeaker sets the speaker_id sent to the server. Empty uses the server's
// single-speaker default.
func WithSpeaker(id string) Option {
	return func(e *Engine) { e.speaker = id }
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.httpClient.Timeout = d }
}

// WithOutputSampleRate configures the engine to resample synthesised PCM to
// the given sample rate. When 0 (default), PCM is returned at the model's
// native rate.
func WithOutputSampleRate(rate int) Option {
	return func(e *Engine) { e.outputRate = rate }
}

// Engine implements tts.Engine backed by a locally-running Higgs Audio server.
// It is safe for concurrent use; multiple Render calls may run in parallel.
type Engine struct {
	serverURL  string
	speaker    string
	httpClient *http.Client
	outputRate int // target sample rate; 0 = no resampling
}

// New creates an Engine that targets the server at serverURL
// (e.g., "http://localhost:5002"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Engine, error) {
	if serverURL == "" {
		return nil, errors.New("higgs: serverURL must not be empty")
	}
	e := &Engine{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Name implements tts.Engine.
func (e *Engine) Name() string { return EngineName }

// Render performs a single GET /api/tts request and returns the raw PCM
// (WAV header stripped). The prosody matrix is passed as query parameters;
// servers that do not understand a parameter ignore it.
func (e *Engine) Render(ctx context.Context, text string, m prosody.Matrix) ([]byte, error) {
	params := url.Values{}
	params.Set("text", text)
	if e.speaker != "" {
		params.Set("speaker_id", e.speaker)
	}
	params.Set("pitch", formatFloat(m.Pitch))
	params.Set("speed", formatFloat(m.Rate))
	params.Set("emphasis", formatFloat(m.Emphasis))
	params.Set("breathiness", formatFloat(m.Breathiness))

	reqURL := e.serverURL + ttsEndpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("higgs: create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("higgs: GET %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("higgs: read WAV response: %w", err)
	}

	info, err := parseWAV(wav)
	if err != nil {
		return nil, err
	}

	pcm := wav[info.DataOffset:]
	if e.outputRate > 0 && info.SampleRate != e.outputRate && info.Channels == 1 {
		pcm = resampleMono16(pcm, info.SampleRate, e.outputRate)
	}
	return pcm, nil
}

// Ping verifies the server is reachable via GET /details.
func (e *Engine) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.serverURL+detailsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("higgs: create ping request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("higgs: GET %s: %w", detailsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("higgs: GET %s returned status %d", detailsEndpoint, resp.StatusCode)
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the dispatcher's failure classes:
// 429 is a quota error, other 4xx are fatal, 5xx stay transient.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: GET %s returned status %d", tts.ErrQuotaExceeded, ttsEndpoint, code)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: GET %s returned status %d", tts.ErrFatal, ttsEndpoint, code)
	default:
		return fmt.Errorf("higgs: GET %s returned status %d", ttsEndpoint, code)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// ---- resampling ----

// resampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using
// linear interpolation. The input must be little-endian int16 samples. If
// srcRate == dstRate, the input is returned unchanged.
func resampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := 0; i < dstSamples; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		var s1 int16
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		} else {
			s1 = s0
		}

		interpolated := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(interpolated)
		out[i*2+1] = byte(interpolated >> 8)
	}
	return out
}

// ---- WAV parsing ----

// wavInfo holds the format metadata extracted from a RIFF/WAVE header.
type wavInfo struct {
	DataOffset int // byte offset of the first PCM sample
	SampleRate int // samples per second
	Channels   int // 1 = mono, 2 = stereo
}

// parseWAV scans the RIFF/WAVE container in wav and returns the data offset
// and audio format from the "fmt " sub-chunk. This is more robust than
// hardcoding a fixed 44-byte offset because the fmt chunk size may vary.
func parseWAV(wav []byte) (wavInfo, error) {
	if len(wav) < 12 {
		return wavInfo{}, errors.New("higgs: WAV response too short to be a valid RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return wavInfo{}, errors.New("higgs: WAV response missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return wavInfo{}, errors.New("higgs: WAV response missing WAVE identifier")
	}

	var info wavInfo
	foundFmt := false

	// Walk RIFF chunks starting immediately after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				foundFmt = true
			}
		case "data":
			info.DataOffset = offset + 8
			if !foundFmt {
				// fmt chunk should appear before data.
				info.SampleRate = 22050
				info.Channels = 1
			}
			return info, nil
		}

		// Advance past this chunk (chunks are word-aligned: pad by 1 if odd size).
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return wavInfo{}, errors.New("higgs: WAV response missing data chunk")
}
