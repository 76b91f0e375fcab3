package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

type GeminiOptions struct {
	ChatModel   string
	ScriptModel string
	VideoModel  string
	// HTTPClient is used for artifact downloads.
	HTTPClient *http.Client
}

// GeminiProvider serves grounded chat and the podcast Studio from the Gemini
// API (chat and structured completions) and Veo (video jobs).
type GeminiProvider struct {
	client     *genai.Client
	opts       GeminiOptions
	downloader *Downloader
}

func NewGeminiProvider(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if opts.ChatModel == "" {
		opts.ChatModel = "gemini-2.5-flash"
	}
	if opts.ScriptModel == "" {
		opts.ScriptModel = "gemini-2.5-flash"
	}
	if opts.VideoModel == "" {
		opts.VideoModel = "veo-2.0-generate-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		opts:       opts,
		downloader: &Downloader{APIKey: apiKey, Client: opts.HTTPClient},
	}, nil
}

func (p *GeminiProvider) NewSession(ctx context.Context, systemInstruction string) (ChatSession, error) {
	chat, err := p.client.Chats.Create(ctx, p.opts.ChatModel, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

func (s *geminiSession) SendStream(ctx context.Context, text string, attachments []Attachment) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		parts := make([]genai.Part, 0, len(attachments)+1)
		parts = append(parts, *genai.NewPartFromText(text))
		for _, a := range attachments {
			parts = append(parts, *genai.NewPartFromBytes(a.Data, a.MIMEType))
		}

		for resp, err := range s.chat.SendMessageStream(ctx, parts...) {
			if err != nil {
				errs <- fmt.Errorf("gemini: stream: %w", err)
				return
			}
			if t := resp.Text(); t != "" {
				chunks <- t
			}
		}
	}()

	return chunks, errs
}

func scriptSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			ScriptField:      {Type: genai.TypeString},
			VideoPromptField: {Type: genai.TypeString},
		},
		Required: []string{ScriptField, VideoPromptField},
	}
}

func contentParts(prompt string, attachments []Attachment) []*genai.Part {
	parts := make([]*genai.Part, 0, len(attachments)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, a := range attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	return parts
}

func (p *GeminiProvider) GenerateScript(ctx context.Context, prompt string, attachments []Attachment) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(contentParts(prompt, attachments), genai.RoleUser),
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.opts.ScriptModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   scriptSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate script: %w", err)
	}
	return resp.Text(), nil
}

func (p *GeminiProvider) SubmitVideo(ctx context.Context, prompt string) (VideoStatus, error) {
	op, err := p.client.Models.GenerateVideos(ctx, p.opts.VideoModel, prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
	})
	if err != nil {
		return VideoStatus{}, fmt.Errorf("gemini: submit video: %w", err)
	}
	return videoStatus(op)
}

func (p *GeminiProvider) PollVideo(ctx context.Context, handle string) (VideoStatus, error) {
	op, err := p.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: handle}, nil)
	if err != nil {
		return VideoStatus{}, fmt.Errorf("gemini: poll video: %w", err)
	}
	return videoStatus(op)
}

func (p *GeminiProvider) Download(ctx context.Context, uri string) (*Artifact, error) {
	return p.downloader.Fetch(ctx, uri)
}

func videoStatus(op *genai.GenerateVideosOperation) (VideoStatus, error) {
	if op == nil {
		return VideoStatus{}, errors.New("gemini: empty video operation")
	}
	if len(op.Error) > 0 {
		msg, _ := op.Error["message"].(string)
		if msg == "" {
			msg = fmt.Sprintf("%v", op.Error)
		}
		return VideoStatus{Handle: op.Name, Done: op.Done}, fmt.Errorf("gemini: video operation failed: %s", msg)
	}

	st := VideoStatus{Handle: op.Name, Done: op.Done}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0]; v != nil && v.Video != nil {
			st.VideoURI = v.Video.URI
		}
	}
	return st, nil
}
