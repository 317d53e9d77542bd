// Package ai wraps the hosted inference endpoints: a Whisper-style
// speech-to-text model and an OpenAI-compatible text model, both reached
// through an AI gateway.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/umo-app/umo/internal/config"
)

const meetingContextPrompt = "Audio captured in a meeting or social context where people are talking."

// SpeechResult is one transcription response: plain text plus an optional
// WebVTT caption track.
type SpeechResult struct {
	Text string
	VTT  string
}

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (*SpeechResult, error)
}

// WhisperClient submits base64-encoded audio to the gateway's Whisper model
// in a single call per recording.
type WhisperClient struct {
	http     *resty.Client
	url      string
	language string
}

func NewWhisperClient(cfg config.SpeechConfig) (*WhisperClient, error) {
	if cfg.GatewayURL == "" {
		return nil, errors.New("speech gateway url is empty")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("speech api key is empty")
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("cf-aig-authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &WhisperClient{
		http:     client,
		url:      cfg.GatewayURL,
		language: cfg.Language,
	}, nil
}

type whisperRequest struct {
	Audio         string `json:"audio"`
	Task          string `json:"task"`
	Language      string `json:"language"`
	VADFilter     bool   `json:"vad_filter"`
	InitialPrompt string `json:"initial_prompt"`
}

type whisperResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		Text string `json:"text"`
		VTT  string `json:"vtt"`
	} `json:"result"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (*SpeechResult, error) {
	if len(audio) == 0 {
		return nil, errors.New("audio is empty")
	}

	var out whisperResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(whisperRequest{
			Audio:         base64.StdEncoding.EncodeToString(audio),
			Task:          "transcribe",
			Language:      c.language,
			VADFilter:     true,
			InitialPrompt: meetingContextPrompt,
		}).
		SetResult(&out).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("call speech model: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("speech model returned %s: %s", resp.Status(), resp.String())
	}
	if !out.Success || out.Result == nil {
		if len(out.Errors) > 0 {
			return nil, fmt.Errorf("speech model failed: %s", out.Errors[0].Message)
		}
		return nil, errors.New("speech model returned no result")
	}

	return &SpeechResult{
		Text: out.Result.Text,
		VTT:  strings.TrimSpace(out.Result.VTT),
	}, nil
}
