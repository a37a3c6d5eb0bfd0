package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"murmur/encoder"
)

// ServerConfig points at an OpenAI-compatible /audio/transcriptions
// endpoint, typically a local whisper server.
type ServerConfig struct {
	URL    string
	APIKey string
	Format string // upload payload format, "flac" or "wav"
}

// Server transcribes by uploading encoded audio to an HTTP endpoint.
type Server struct {
	url    string
	apiKey string
	format string
	model  string
	client *http.Client
}

// NewServer probes the endpoint so a bad URL fails at load time
// instead of on the first dictation.
func NewServer(cfg ServerConfig, model string) (*Server, error) {
	serverName, err := serverModel(model)
	if err != nil {
		return nil, err
	}
	format := cfg.Format
	if format == "" {
		format = "flac"
	}
	if _, err := encoder.New(format); err != nil {
		return nil, err
	}
	s := &Server{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		format: format,
		model:  serverName,
		client: &http.Client{Timeout: 120 * time.Second},
	}
	if err := s.probe(); err != nil {
		return nil, err
	}
	return s, nil
}

// probe confirms the server is reachable. Any HTTP response counts; a
// bare endpoint may 404 on HEAD while still serving transcriptions.
func (s *Server) probe() error {
	req, err := http.NewRequest(http.MethodHead, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable at %s: %w", s.url, err)
	}
	resp.Body.Close()
	return nil
}

type serverResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

func (s *Server) Transcribe(ctx context.Context, r Request) (*Result, error) {
	payload, err := encoder.Encode(s.format, encoder.Int16FromFloat32(r.Samples))
	if err != nil {
		return nil, fmt.Errorf("encoding audio: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+s.format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, err
	}

	writer.WriteField("model", s.model)
	writer.WriteField("response_format", "verbose_json")
	if r.Language != "" {
		writer.WriteField("language", r.Language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(data))
	}

	var sResp serverResponse
	if err := json.Unmarshal(data, &sResp); err != nil {
		return nil, fmt.Errorf("response parse error: %w", err)
	}

	segments := make([]Segment, 0, len(sResp.Segments))
	for _, seg := range sResp.Segments {
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return &Result{
		Text:     sResp.Text,
		Segments: segments,
		Language: sResp.Language,
	}, nil
}

func (s *Server) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
