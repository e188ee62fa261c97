package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	openAIDefaultModel = openai.SpeechModelTTS1HD
	// Fallback voices when a pair letter is unrecognized.
	defaultVoiceA = "nova"
	defaultVoiceB = "onyx"
)

// pairVoices maps a voice-pair letter to an OpenAI voice name. A pair
// selector like "FM" picks the voice for host A from its first letter and
// host B from its second.
var pairVoices = map[byte]string{
	'F': "nova",
	'M': "onyx",
	'A': "alloy",
	'S': "shimmer",
	'E': "echo",
}

// OpenAISynthesizerConfig configures the OpenAI speech synthesizer.
type OpenAISynthesizerConfig struct {
	APIKey     string
	Model      string // "tts-1-hd" (default) or "tts-1"
	Speed      float64
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// OpenAISynthesizer renders dialogue line by line, switching voices per
// host, and returns the concatenated MP3 stream.
type OpenAISynthesizer struct {
	model  string
	speed  float64
	client openai.Client
	logger *slog.Logger
}

// NewOpenAISynthesizer creates an OpenAISynthesizer.
func NewOpenAISynthesizer(cfg OpenAISynthesizerConfig) *OpenAISynthesizer {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAISynthesizer{
		model:  cfg.Model,
		speed:  cfg.Speed,
		client: openai.NewClient(opts...),
		logger: cfg.Logger,
	}
}

// Synthesize renders each dialogue line with the host's voice and appends
// the resulting MP3 frames in order. Blank lines are skipped.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, scriptText, voicePair string) ([]byte, error) {
	voiceA, voiceB := VoicesForPair(voicePair)

	var out []byte
	lines := strings.Split(scriptText, "\n")
	for i, line := range lines {
		text, voice := speakerText(line, voiceA, voiceB)
		if text == "" {
			continue
		}

		segment, err := s.speak(ctx, text, voice)
		if err != nil {
			return nil, fmt.Errorf("synthesizing line %d: %w", i, err)
		}
		out = append(out, segment...)
	}

	s.logger.Info("speech synthesis complete", "lines", len(lines), "bytes", len(out))
	return out, nil
}

func (s *OpenAISynthesizer) speak(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(s.speed),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// speakerText strips the "Host X:" prefix and picks the voice for the line's
// speaker. Lines without a host prefix are spoken with voice A.
func speakerText(line, voiceA, voiceB string) (string, string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "Host A:"):
		return strings.TrimSpace(trimmed[len("Host A:"):]), voiceA
	case strings.HasPrefix(trimmed, "Host B:"):
		return strings.TrimSpace(trimmed[len("Host B:"):]), voiceB
	default:
		return trimmed, voiceA
	}
}

// VoicesForPair resolves a two-letter voice-pair selector like "FM" into
// concrete voice names for hosts A and B.
func VoicesForPair(pair string) (string, string) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	voiceA, voiceB := defaultVoiceA, defaultVoiceB
	if len(pair) >= 1 {
		if v, ok := pairVoices[pair[0]]; ok {
			voiceA = v
		}
	}
	if len(pair) >= 2 {
		if v, ok := pairVoices[pair[1]]; ok {
			voiceB = v
		}
	}
	return voiceA, voiceB
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)
