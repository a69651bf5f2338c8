// Package scribe wraps the hosted generative model behind the four
// operations the application needs. Every operation catches all failures
// internally and returns a sentinel (fallback string or nil) — callers
// treat that as "feature unavailable this time", never as an error to
// propagate. There is no retry, backoff, or streaming.
package scribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"

	"careline-be/internal/metrics"
	"careline-be/internal/models"
)

// FallbackSummary is returned whenever call summarization fails.
const FallbackSummary = "Call ended."

type Client struct {
	client *openai.Client
	model  string
}

// New builds a scribe client. The API key is taken from OPENAI_API_KEY;
// without one the client still tries unauthenticated access and degrades
// per-operation.
func New(baseURL, model string) *Client {
	var options []option.RequestOption
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	} else {
		log.Info("OPENAI_API_KEY is not set, scribe features will degrade to fallbacks")
	}
	client := openai.NewClient(options...)
	return &Client{client: &client, model: model}
}

func (c *Client) chat(ctx context.Context, instructions, data string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instructions),
			openai.UserMessage(data),
		},
		Model: c.model,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// SummarizeCall produces a short prose summary of a finished call. Never
// fails: any error yields FallbackSummary.
func (c *Client) SummarizeCall(ctx context.Context, durationSeconds int, transcript string) string {
	data := fmt.Sprintf("Call duration: %d minutes %d seconds.", durationSeconds/60, durationSeconds%60)
	if strings.TrimSpace(transcript) != "" {
		data += "\n\nTranscript:\n" + transcript
	}
	out, err := c.chat(ctx, summarizeInstructions, data)
	if err != nil || strings.TrimSpace(out) == "" {
		metrics.ScribeFailures.WithLabelValues("summarize_call").Inc()
		log.WithError(err).Warn("call summarization unavailable")
		return FallbackSummary
	}
	return strings.TrimSpace(out)
}

// Analysis is the result of analyzing a drafted message.
type Analysis struct {
	Suggestions       []models.Suggestion `json:"suggestions"`
	ProfessionalDraft string              `json:"professional_draft"`
}

// AnalyzeMessage extracts clinically relevant note suggestions and a
// professional rewording from a drafted message. Returns nil on any
// failure.
func (c *Client) AnalyzeMessage(ctx context.Context, text string) *Analysis {
	out, err := c.chat(ctx, analyzeInstructions, text)
	if err != nil {
		metrics.ScribeFailures.WithLabelValues("analyze_message").Inc()
		log.WithError(err).Warn("message analysis unavailable")
		return nil
	}
	var parsed struct {
		Suggestions []struct {
			Section  string `json:"section"`
			Text     string `json:"text"`
			Category string `json:"category"`
		} `json:"suggestions"`
		ProfessionalDraft string `json:"professional_draft"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(out)), &parsed); err != nil {
		metrics.ScribeFailures.WithLabelValues("analyze_message").Inc()
		log.WithError(err).Warn("message analysis returned unparseable output")
		return nil
	}
	res := &Analysis{ProfessionalDraft: parsed.ProfessionalDraft}
	for _, sg := range parsed.Suggestions {
		res.Suggestions = append(res.Suggestions, models.Suggestion{
			ID:       uuid.NewString(),
			Section:  sg.Section,
			Text:     sg.Text,
			Category: sg.Category,
		})
	}
	return res
}

// GenerateStructuredNote turns a transcript into section content for the
// given template. Returns nil on any failure; callers treat nil as "no
// note produced".
func (c *Client) GenerateStructuredNote(ctx context.Context, transcript []string, template models.Template, consultationType, visitReason string) map[string]string {
	var b strings.Builder
	b.WriteString("Template: " + template.Name + "\nSections:\n")
	for _, sec := range template.Sections {
		fmt.Fprintf(&b, "- %s (%s)\n", sec.ID, sec.Label)
	}
	if consultationType != "" {
		b.WriteString("Consultation type: " + consultationType + "\n")
	}
	if visitReason != "" {
		b.WriteString("Visit reason: " + visitReason + "\n")
	}
	b.WriteString("\nTranscript:\n" + strings.Join(transcript, "\n"))

	out, err := c.chat(ctx, noteInstructions, b.String())
	if err != nil {
		metrics.ScribeFailures.WithLabelValues("generate_note").Inc()
		log.WithError(err).Warn("note generation unavailable")
		return nil
	}
	var sections map[string]string
	if err := json.Unmarshal([]byte(cleanJSON(out)), &sections); err != nil {
		metrics.ScribeFailures.WithLabelValues("generate_note").Inc()
		log.WithError(err).Warn("note generation returned unparseable output")
		return nil
	}
	// drop keys the template does not define
	valid := map[string]bool{}
	for _, sec := range template.Sections {
		valid[sec.ID] = true
	}
	for k := range sections {
		if !valid[k] {
			delete(sections, k)
		}
	}
	if len(sections) == 0 {
		return nil
	}
	return sections
}

// TranscribeAudio transcribes base64-encoded audio. Failures are reported
// in-band as an explanatory string rather than an error.
func (c *Client) TranscribeAudio(ctx context.Context, base64Audio string) string {
	data := "Audio (base64-encoded):\n" + base64Audio
	out, err := c.chat(ctx, transcribeInstructions, data)
	if err != nil || strings.TrimSpace(out) == "" {
		metrics.ScribeFailures.WithLabelValues("transcribe_audio").Inc()
		log.WithError(err).Warn("audio transcription unavailable")
		return "Transcription unavailable."
	}
	return strings.TrimSpace(out)
}

// cleanJSON strips markdown code fences models like to wrap JSON in.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
