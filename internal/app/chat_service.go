package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"antrelay/internal/ai"
	"antrelay/internal/model"
)

var (
	ErrMissingSessionIdentifier = errors.New("missing session identifier")
	ErrMissingQuestion          = errors.New("missing question")
)

// Mode records which path produced the reply of a turn.
type Mode string

const (
	ModeOpenAI Mode = "openai"
	ModeEcho   Mode = "echo"
)

const (
	systemPrompt = "Be concise and helpful."
	temperature  = 0.7

	// absoluteTokenCeiling caps the completion call regardless of
	// configuration.
	absoluteTokenCeiling = 200

	historyLimit      = 20
	proofDefaultLimit = 5
	proofMaxLimit     = 20
)

// MessageStore is the durable message and usage-counter store.
type MessageStore interface {
	InsertMessage(ctx context.Context, message *model.Message) error
	ListBySession(ctx context.Context, sessionIdentifier string, limit int) ([]model.Message, error)
	ListRecent(ctx context.Context, limit int) ([]model.Message, error)
	UpsertUsage(ctx context.Context, sessionIdentifier, day string, tokensUsed int) error
}

// CompletionProvider is the optional external completion API. A nil
// provider means every turn falls back to the echo reply.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (ai.CompletionResult, error)
}

// TurnEventPublisher hands completed turns to the snapshot queue.
type TurnEventPublisher interface {
	Publish(ctx context.Context, event model.TurnEvent) error
}

// HistoryCache is a read-through cache for session history. All of its
// failures are non-fatal.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionIdentifier string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionIdentifier string, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionIdentifier string) error
	MarkDirty(ctx context.Context, sessionIdentifier string) error
	IsDirty(ctx context.Context, sessionIdentifier string) (bool, error)
}

type ChatService struct {
	store           MessageStore
	provider        CompletionProvider
	publisher       TurnEventPublisher
	historyCache    HistoryCache
	maxOutputTokens int
}

type TurnInput struct {
	SessionIdentifier string
	Question          string
}

type TurnResult struct {
	Reply             string
	SessionIdentifier string
	Question          string
	Mode              Mode
	Usage             *ai.TokenUsage
}

// NewChatService wires the turn processor. provider, publisher and
// historyCache may be nil (absent collaborator).
func NewChatService(
	store MessageStore,
	provider CompletionProvider,
	publisher TurnEventPublisher,
	historyCache HistoryCache,
	maxOutputTokens int,
) *ChatService {
	if maxOutputTokens <= 0 {
		maxOutputTokens = absoluteTokenCeiling
	}
	return &ChatService{
		store:           store,
		provider:        provider,
		publisher:       publisher,
		historyCache:    historyCache,
		maxOutputTokens: maxOutputTokens,
	}
}

// ProviderConfigured reports whether a completion provider is wired in.
func (s *ChatService) ProviderConfigured() bool {
	return s.provider != nil
}

// ProcessTurn runs one question/reply exchange. The user message is always
// durably written before the completion call, and the assistant message is
// always written afterwards, whichever path produced the reply. Only
// validation failures and store failures abort the turn; provider and
// usage-counter failures are absorbed.
func (s *ChatService) ProcessTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	if input.SessionIdentifier == "" {
		return nil, ErrMissingSessionIdentifier
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, ErrMissingQuestion
	}

	// The raw question is persisted untrimmed.
	userMessage := &model.Message{
		SessionIdentifier: input.SessionIdentifier,
		Role:              model.RoleUser,
		MessageText:       input.Question,
	}
	if err := s.store.InsertMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	reply := echoReply(input.Question)
	mode := ModeEcho
	var usage *ai.TokenUsage

	if s.provider != nil {
		maxTokens := s.maxOutputTokens
		if maxTokens > absoluteTokenCeiling {
			maxTokens = absoluteTokenCeiling
		}
		result, err := s.provider.Complete(ctx, systemPrompt, input.Question, maxTokens, temperature)
		switch {
		case err != nil:
			// The turn never fails because the provider failed.
			log.Printf("completion call failed, falling back to echo: %v", err)
		case strings.TrimSpace(result.Text) != "":
			reply = strings.TrimSpace(result.Text)
			mode = ModeOpenAI
			usage = result.Usage
		default:
			// Empty completion: keep the echo text but report the openai
			// mode, matching the observed behavior of the original service.
			mode = ModeOpenAI
		}
	}

	if usage != nil {
		day := time.Now().UTC().Format("2006-01-02")
		total := usage.TokensIn + usage.TokensOut
		if err := s.store.UpsertUsage(ctx, input.SessionIdentifier, day, total); err != nil {
			log.Printf("usage counter upsert failed: %v", err)
		}
	}

	assistantMessage := &model.Message{
		SessionIdentifier: input.SessionIdentifier,
		Role:              model.RoleAssistant,
		MessageText:       reply,
	}
	if err := s.store.InsertMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	s.afterTurn(ctx, input, reply, mode)

	return &TurnResult{
		Reply:             reply,
		SessionIdentifier: input.SessionIdentifier,
		Question:          input.Question,
		Mode:              mode,
		Usage:             usage,
	}, nil
}

// afterTurn runs the best-effort follow-ups: cache invalidation and the
// snapshot event.
func (s *ChatService) afterTurn(ctx context.Context, input TurnInput, reply string, mode Mode) {
	if s.historyCache != nil {
		if err := s.historyCache.MarkDirty(ctx, input.SessionIdentifier); err != nil {
			log.Printf("mark history dirty failed: %v", err)
		}
		if err := s.historyCache.DeleteHistory(ctx, input.SessionIdentifier); err != nil {
			log.Printf("invalidate history cache failed: %v", err)
		}
	}
	if s.publisher != nil {
		event := model.TurnEvent{
			SessionIdentifier: input.SessionIdentifier,
			Question:          input.Question,
			Reply:             reply,
			Mode:              string(mode),
			CreatedAt:         time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("publish turn event failed: %v", err)
		}
	}
}

// History returns the most recent messages of one session, newest first.
func (s *ChatService) History(ctx context.Context, sessionIdentifier string) ([]model.Message, error) {
	if sessionIdentifier == "" {
		return nil, ErrMissingSessionIdentifier
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionIdentifier)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionIdentifier); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.store.ListBySession(ctx, sessionIdentifier, historyLimit)
	if err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionIdentifier); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, sessionIdentifier, messages); err != nil {
				log.Printf("set history cache failed: %v", err)
			}
		}
	}
	return messages, nil
}

// RecentMessages returns the latest rows across all sessions, newest first.
// The limit defaults to 5 and is clamped to [1, 20].
func (s *ChatService) RecentMessages(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = proofDefaultLimit
	}
	if limit > proofMaxLimit {
		limit = proofMaxLimit
	}
	return s.store.ListRecent(ctx, limit)
}

func echoReply(question string) string {
	return fmt.Sprintf(`Hello! You asked: "%s"`, question)
}
