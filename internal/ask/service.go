package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"sortir-backend/internal/documents"
	"sortir-backend/internal/llm"
	"sortir-backend/internal/shared/metrics"
	"sortir-backend/internal/shared/telemetry"
)

const (
	// DefaultMaxContextChars bounds the assembled context when unset.
	DefaultMaxContextChars = 100000
	// MaxQuestionChars caps question length.
	MaxQuestionChars = 4000
	// NoDocumentsAnswer is returned when the owner has nothing uploaded.
	NoDocumentsAnswer = "No documents available. Upload a PDF first, then ask your question again."
)

// DocumentLister loads an owner's documents.
type DocumentLister interface {
	List(ctx context.Context, userID string) ([]documents.Document, error)
}

// Result is the outcome of one question.
type Result struct {
	Answer       string
	Sources      []string
	NoDocuments  bool
	Truncated    bool
	ContextChars int
}

// Service answers questions from the owner's uploaded documents.
type Service struct {
	Docs            DocumentLister
	Gateway         llm.Gateway
	MaxContextChars int
}

// NewService constructs a Service.
func NewService(docs DocumentLister, gateway llm.Gateway, maxContextChars int) *Service {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &Service{Docs: docs, Gateway: gateway, MaxContextChars: maxContextChars}
}

// Ask runs validate, load, guard-empty, assemble and dispatch in order. Each
// step's failure ends the request.
func (s *Service) Ask(ctx context.Context, userID, question string) (Result, error) {
	res, err := s.ask(ctx, userID, question)
	metrics.IncAsk(askOutcome(res, err))
	return res, err
}

func (s *Service) ask(ctx context.Context, userID, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if strings.TrimSpace(userID) == "" {
		return Result{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if question == "" {
		return Result{}, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(question) > MaxQuestionChars {
		return Result{}, fmt.Errorf("%w: question must be at most %d characters", ErrInvalidInput, MaxQuestionChars)
	}

	docs, err := s.Docs.List(ctx, userID)
	if err != nil {
		if errors.Is(err, documents.ErrStorage) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", documents.ErrStorage, err)
	}

	if len(docs) == 0 {
		return Result{Answer: NoDocumentsAnswer, NoDocuments: true}, nil
	}

	contextText, sources, truncated := assemble(docs, s.maxContext())
	contextChars := utf8.RuneCountInString(contextText)
	metrics.ObserveContextChars(contextChars)
	if truncated {
		telemetry.Warn("ask.context_truncated", map[string]any{
			"user_id":       userID,
			"documents":     len(docs),
			"used":          len(sources),
			"context_chars": contextChars,
		})
	}

	answer, err := s.Gateway.Ask(ctx, llm.SystemInstruction, contextText, question)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return Result{
		Answer:       answer,
		Sources:      sources,
		Truncated:    truncated,
		ContextChars: contextChars,
	}, nil
}

func (s *Service) maxContext() int {
	if s.MaxContextChars <= 0 {
		return DefaultMaxContextChars
	}
	return s.MaxContextChars
}

func askOutcome(res Result, err error) string {
	switch {
	case err == nil && res.NoDocuments:
		return "no_documents"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, documents.ErrStorage):
		return "storage"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}
