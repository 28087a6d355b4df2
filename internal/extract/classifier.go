package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/inbox-ledger/internal/domain"
	"github.com/dvloznov/inbox-ledger/internal/mail"
)

// minBodyLength is the shortest trimmed body worth sending to the model.
// Anything shorter cannot describe a transaction and would waste a call.
const minBodyLength = 10

const defaultModel = "gemini-2.0-flash"

// Classifier decides whether a message describes a financial transaction.
// A nil result means "no usable verdict"; the contract swallows transport
// and parse failures, so callers never see them.
type Classifier interface {
	Classify(ctx context.Context, msg *mail.Digest) *domain.Transaction
}

// ReplyArchiver stores raw model replies that could not be parsed, for
// offline inspection. Implementations are best-effort.
type ReplyArchiver interface {
	ArchiveReply(ctx context.Context, messageID, raw string) error
}

// generator isolates the actual model call so tests can substitute a fake.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// ClassifierConfig carries the remote service settings. It is injected at
// construction; the classifier holds no process-wide state.
type ClassifierConfig struct {
	APIKey string
	Model  string
}

// GeminiClassifier asks Gemini whether an email body describes a financial
// transaction and, when it does, builds a transaction record from the
// model's verdict.
type GeminiClassifier struct {
	gen     generator
	archive ReplyArchiver // may be nil
	log     zerolog.Logger
}

// NewGeminiClassifier builds a classifier backed by the Gemini API. archive
// may be nil to disable raw-reply archiving.
func NewGeminiClassifier(ctx context.Context, cfg ClassifierConfig, archive ReplyArchiver, log zerolog.Logger) (*GeminiClassifier, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClassifier: create genai client: %w", err)
	}

	return &GeminiClassifier{
		gen:     &geminiGenerator{client: client, model: cfg.Model},
		archive: archive,
		log:     log,
	}, nil
}

// verdict is the JSON object the model is instructed to reply with.
type verdict struct {
	IsTransaction bool    `json:"is_transaction"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
}

// Classify implements Classifier. Every failure mode (short body, transport
// fault, malformed reply, invalid verdict) is logged and yields nil; faults
// never propagate to the pipeline.
func (c *GeminiClassifier) Classify(ctx context.Context, msg *mail.Digest) *domain.Transaction {
	if len(strings.TrimSpace(msg.Body)) < minBodyLength {
		c.log.Debug().
			Str("message_id", msg.ID).
			Str("subject", msg.Subject).
			Msg("Body empty or too short, skipping model call")
		return nil
	}

	raw, err := c.gen.generate(ctx, buildPrompt(msg.Body))
	if err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID).Msg("Model call failed")
		return nil
	}

	payload, ok := extractJSONObject(raw)
	if !ok {
		c.log.Error().Str("message_id", msg.ID).Str("reply", raw).Msg("Model reply carries no JSON object")
		c.archiveRaw(ctx, msg.ID, raw)
		return nil
	}

	var v verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID).Str("payload", payload).Msg("Model verdict is not valid JSON")
		c.archiveRaw(ctx, msg.ID, raw)
		return nil
	}

	if !v.IsTransaction {
		return nil
	}
	if math.IsNaN(v.Amount) || math.IsInf(v.Amount, 0) || v.Amount < 0 {
		c.log.Warn().Str("message_id", msg.ID).Float64("amount", v.Amount).Msg("Verdict amount unusable, discarding")
		return nil
	}
	txType, ok := domain.ParseTxType(v.Type)
	if !ok {
		c.log.Warn().Str("message_id", msg.ID).Str("type", v.Type).Msg("Verdict type unusable, discarding")
		return nil
	}

	description := msg.Subject
	if description == "" {
		description = "Transaction"
	}

	return &domain.Transaction{
		Amount:      v.Amount,
		Type:        txType,
		Merchant:    "Unknown",
		Description: description,
		MessageID:   msg.ID,
	}
}

func (c *GeminiClassifier) archiveRaw(ctx context.Context, messageID, raw string) {
	if c.archive == nil {
		return
	}
	if err := c.archive.ArchiveReply(ctx, messageID, raw); err != nil {
		c.log.Warn().Err(err).Str("message_id", messageID).Msg("Failed to archive raw reply")
	}
}

// buildPrompt wraps the email body in the extraction instruction. The model
// is told to reply with a single JSON object so the reply can be parsed
// without free-text heuristics.
func buildPrompt(body string) string {
	return "You are an expert at extracting financial transactions from emails. " +
		"Given the following email content, determine if it describes a financial transaction. " +
		"If yes, extract the amount and type (Credit/Debit). " +
		"Respond ONLY in JSON: {\"is_transaction\":true/false,\"amount\":number,\"type\":\"Credit/Debit\"}. " +
		"Email: " + body
}

// extractJSONObject pulls the JSON object out of a model reply that may be
// wrapped in markdown code fences or surrounded by commentary: strip edge
// fences, then keep the substring from the first '{' to the last '}'.
func extractJSONObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// geminiGenerator is the live generator backed by the Gemini API.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

// generate sends one prompt and returns the first candidate's first text
// part, the only fragment of the response envelope this service consumes.
func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate: empty response from model")
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("generate: first response part carries no text")
	}
	return text, nil
}
