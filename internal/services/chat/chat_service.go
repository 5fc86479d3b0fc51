package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/mishrapravin114/pharmadoc/internal/common"
	"github.com/mishrapravin114/pharmadoc/internal/interfaces"
	"github.com/mishrapravin114/pharmadoc/internal/models"
)

const systemPrompt = `You are a pharmaceutical documentation assistant. Answer strictly from the
provided document excerpts. If the excerpts do not contain the answer, say so.
Cite document names when referencing specific facts.`

// maxContextDocuments caps how many documents are stuffed into one prompt
const maxContextDocuments = 5

// Service implements ChatService: retrieval-augmented answering over a
// collection's indexed documents via the Anthropic API.
type Service struct {
	config    *common.ClaudeConfig
	storage   interfaces.DocumentStorage
	client    anthropic.Client
	logger    arbor.ILogger
	timeout   time.Duration
	maxTokens int
}

// NewService creates a new chat service. Returns an error when no API key is
// configured; the chat endpoint is then disabled rather than failing at
// request time.
func NewService(config *common.ClaudeConfig, storage interfaces.DocumentStorage, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for chat (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	timeout := 60 * time.Second
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid claude.timeout: %w", err)
		}
		timeout = parsed
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Service{
		config:    config,
		storage:   storage,
		client:    anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		logger:    logger,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Ask answers a question grounded on the collection's indexed documents
func (s *Service) Ask(ctx context.Context, collectionID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}

	docs, err := s.storage.ListDocuments(ctx, collectionID)
	if err != nil {
		return "", err
	}

	context_ := buildContext(docs, question)
	if context_ == "" {
		return "", fmt.Errorf("no indexed documents in collection %s", collectionID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf("Document excerpts:\n\n%s\n\nQuestion: %s", context_, question),
			)),
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	if answer.Len() == 0 {
		return "", fmt.Errorf("no response generated")
	}

	s.logger.Debug().
		Str("collection_id", collectionID).
		Int("context_documents", min(len(docs), maxContextDocuments)).
		Msg("Chat answer generated")

	return answer.String(), nil
}

// buildContext selects the indexed documents most relevant to the question by
// naive term overlap and concatenates their content plus extracted metadata.
func buildContext(docs []*models.Document, question string) string {
	terms := strings.Fields(strings.ToLower(question))

	type scored struct {
		doc   *models.Document
		score int
	}
	var candidates []scored
	for _, doc := range docs {
		if !doc.IsIndexed() {
			continue
		}
		haystack := strings.ToLower(doc.Name + " " + doc.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		candidates = append(candidates, scored{doc, score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxContextDocuments {
		candidates = candidates[:maxContextDocuments]
	}

	var b strings.Builder
	for _, c := range candidates {
		b.WriteString("--- ")
		b.WriteString(c.doc.Name)
		b.WriteString(" ---\n")
		for name, value := range c.doc.Metadata {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
		if c.doc.Content != "" {
			b.WriteString(c.doc.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
