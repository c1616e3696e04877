package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"dictator/audio"
	"dictator/encoder"
	"dictator/log"
)

const openAIBaseURL = "https://api.openai.com/v1/"

// OpenAI uploads FLAC-compressed audio to the hosted whisper model.
type OpenAI struct {
	client  openai.Client
	http    *http.Client
	baseURL string
	lang    string
}

type OpenAIOption func(*OpenAI)

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) { o.baseURL = url }
}

func NewOpenAI(apiKey, lang string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		http:    newTracedClient(),
		baseURL: openAIBaseURL,
		lang:    lang,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(o.baseURL),
		option.WithHTTPClient(o.http),
		option.WithMaxRetries(1),
	)
	return o
}

func (o *OpenAI) Name() string { return "openai" }

// Warm pre-establishes the TLS connection in the background.
func (o *OpenAI) Warm() {
	go func() {
		if d := warm(o.http, o.baseURL); d > 0 {
			log.Debugf("openai connection warmed, tls %dms", d.Milliseconds())
		}
	}()
}

func (o *OpenAI) Transcribe(ctx context.Context, samples []float32, sampleRate int) (Result, error) {
	flacData, err := encoder.EncodeFLAC(audio.Denormalize(samples), uint32(sampleRate))
	if err != nil {
		return Result{}, fmt.Errorf("encoding upload: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(flacData), "audio.flac", "audio/flac"),
		Model:          openai.AudioModelWhisper1,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if o.lang != "" {
		params.Language = openai.String(o.lang)
	}

	metrics := &NetworkMetrics{}
	resp, err := o.client.Audio.Transcriptions.New(withMetrics(ctx, metrics), params)
	if err != nil {
		return Result{}, fmt.Errorf("%w: openai: %v", ErrTranscriptionFailed, err)
	}

	res := Result{Network: metrics}
	for _, s := range resp.Segments {
		res.Segments = append(res.Segments, Segment{
			Text:  s.Text,
			Start: time.Duration(s.Start * float64(time.Second)),
			End:   time.Duration(s.End * float64(time.Second)),
		})
	}
	res.Text = resp.Text
	if len(res.Segments) > 0 {
		res.Text = JoinSegments(res.Segments)
	}

	log.TranscriptionMetrics(log.Metrics{
		AudioS:      float64(len(samples)) / float64(sampleRate),
		Segments:    len(res.Segments),
		TotalTimeMs: float64(metrics.Total.Milliseconds()),
		TTFBMs:      float64(metrics.TTFB.Milliseconds()),
		UploadKB:    float64(len(flacData)) / 1024,
	}, o.Name())
	return res, nil
}
