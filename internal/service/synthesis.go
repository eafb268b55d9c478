package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
)

const (
	defaultSystemPrompt = "Write about the given topic. Markdown is supported. Use headings wherever appropriate and create a well-structured document."

	templateSystemPrompt = `You write documents from a template and a set of source excerpts.
Keep the structure, headings and formatting of the template.
Fill each section with facts taken from the source excerpts only.
Leave a section empty rather than inventing content the excerpts do not support.`
)

// CompletionStream yields generated text fragments. Recv returns io.EOF when
// the completion is done.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// CompletionProvider starts streamed completions against a language model.
type CompletionProvider interface {
	StreamCompletion(ctx context.Context, system, prompt string) (CompletionStream, error)
}

// DeltaSink receives the deltas of one session in emission order.
type DeltaSink interface {
	Send(d domain.Delta) error
}

// SinkFunc adapts a function to DeltaSink.
type SinkFunc func(d domain.Delta) error

func (f SinkFunc) Send(d domain.Delta) error { return f(d) }

// ChunkSearcher is the retrieval dependency of the driver.
type ChunkSearcher interface {
	Search(ctx context.Context, input SearchInput) ([]domain.ScoredChunk, error)
}

// TemplateSource returns the most recent template registered under a scope.
type TemplateSource interface {
	LatestTemplate(ctx context.Context, scopeID string) (*domain.SourceFile, error)
}

// DocumentRepository persists finished documents.
type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// SynthesisInput describes the document to write.
type SynthesisInput struct {
	ScopeID     string
	Title       string
	Description string
	Kind        domain.ArtifactKind
}

// SynthesisResult is the outcome of a session.
type SynthesisResult struct {
	DocumentID string
	State      domain.SynthesisState
	Content    string
	Err        error
}

// SynthesisDriver runs synthesis sessions: retrieve, prompt, stream deltas.
type SynthesisDriver struct {
	retriever ChunkSearcher
	templates TemplateSource
	provider  CompletionProvider
	documents DocumentRepository
	uuidGen   UUIDGenerator
	now       func() time.Time
}

// NewSynthesisDriver creates a new SynthesisDriver instance
func NewSynthesisDriver(retriever ChunkSearcher, templates TemplateSource, provider CompletionProvider, documents DocumentRepository) *SynthesisDriver {
	return NewSynthesisDriverWithUUIDGen(retriever, templates, provider, documents, &DefaultUUIDGenerator{})
}

// NewSynthesisDriverWithUUIDGen creates a driver with a custom id generator (for testing)
func NewSynthesisDriverWithUUIDGen(retriever ChunkSearcher, templates TemplateSource, provider CompletionProvider, documents DocumentRepository, uuidGen UUIDGenerator) *SynthesisDriver {
	return &SynthesisDriver{
		retriever: retriever,
		templates: templates,
		provider:  provider,
		documents: documents,
		uuidGen:   uuidGen,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// session tracks the state of one Generate call.
type session struct {
	id    string
	state domain.SynthesisState
	sink  DeltaSink
	draft strings.Builder
}

func (s *session) transition(next domain.SynthesisState) {
	if !s.state.CanTransition(next) {
		log.Printf("synthesis %s: ignored transition %s -> %s", s.id, s.state, next)
		return
	}
	s.state = next
}

// Generate runs one session and writes its deltas to sink. An error is
// returned only for invalid input, before anything is emitted. Failures after
// that end the session with an error delta and are reported in the result.
func (d *SynthesisDriver) Generate(ctx context.Context, input SynthesisInput, sink DeltaSink) (*SynthesisResult, error) {
	if input.ScopeID == "" || strings.TrimSpace(input.Title) == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if input.Kind == "" {
		input.Kind = domain.ArtifactKindText
	}
	if !domain.IsValidArtifactKind(input.Kind) {
		return nil, domain.ErrInvalidArtifactKind
	}

	s := &session{
		id:    d.uuidGen.NewString(),
		state: domain.SynthesisStatePending,
		sink:  sink,
	}

	ctx, span := telemetry.StartSpan(ctx, "SynthesisDriver.Generate", telemetry.SpanAttributes{
		ScopeID:    input.ScopeID,
		DocumentID: s.id,
		Operation:  "synthesis",
	})
	defer span.End()

	err := d.run(ctx, s, input)
	result := &SynthesisResult{DocumentID: s.id, Content: s.draft.String(), Err: err}

	switch {
	case err == nil:
		s.transition(domain.SynthesisStateFinished)
	case ctx.Err() != nil:
		s.transition(domain.SynthesisStateCancelled)
	default:
		span.SetError(err)
		s.transition(domain.SynthesisStateFailed)
		if sendErr := sink.Send(domain.ErrorDelta{DocumentID: s.id, Message: err.Error()}); sendErr != nil {
			log.Printf("synthesis %s: failed to send error delta: %v", s.id, sendErr)
		}
	}
	result.State = s.state

	return result, nil
}

func (d *SynthesisDriver) run(ctx context.Context, s *session, input SynthesisInput) error {
	header := []domain.Delta{
		domain.IDDelta{DocumentID: s.id},
		domain.KindDelta{DocumentID: s.id, Kind: input.Kind},
		domain.TitleDelta{DocumentID: s.id, Title: input.Title},
		domain.ClearDelta{DocumentID: s.id},
	}
	for _, delta := range header {
		if err := s.sink.Send(delta); err != nil {
			return err
		}
	}

	s.transition(domain.SynthesisStateRetrieving)
	system, prompt, err := d.buildPrompt(ctx, input)
	if err != nil {
		return err
	}

	s.transition(domain.SynthesisStateGenerating)
	stream, err := d.provider.StreamCompletion(ctx, system, prompt)
	if err != nil {
		return domain.ErrCompletionProvider.Wrap(err)
	}
	defer stream.Close()

	for {
		text, err := stream.Recv()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ErrCompletionProvider.Wrap(err)
		}
		s.draft.WriteString(text)
		if err := s.sink.Send(domain.TextDelta{DocumentID: s.id, Text: text}); err != nil {
			return err
		}
	}

	doc := &domain.Document{
		ID:        s.id,
		ScopeID:   input.ScopeID,
		Kind:      input.Kind,
		Title:     input.Title,
		Content:   s.draft.String(),
		CreatedAt: d.now(),
	}
	if err := d.documents.Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return s.sink.Send(domain.FinishDelta{DocumentID: s.id})
}

// buildPrompt retrieves context for the request and interpolates it, together
// with the latest template body, into the instruction template.
func (d *SynthesisDriver) buildPrompt(ctx context.Context, input SynthesisInput) (string, string, error) {
	query := strings.TrimSpace(input.Title + " " + input.Description)
	chunks, err := d.retriever.Search(ctx, SearchInput{ScopeID: input.ScopeID, Query: query})
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve context: %w", err)
	}

	template, err := d.templates.LatestTemplate(ctx, input.ScopeID)
	if err != nil && !isNotFound(err) {
		return "", "", fmt.Errorf("failed to load template: %w", err)
	}

	var templateBody string
	if template != nil {
		templateBody = strings.TrimSpace(template.Content)
	}
	system, prompt := BuildPrompt(input, templateBody, chunks)
	return system, prompt, nil
}

// BuildPrompt renders the system and user prompts for a session.
func BuildPrompt(input SynthesisInput, templateBody string, chunks []domain.ScoredChunk) (string, string) {
	system := defaultSystemPrompt
	if templateBody != "" {
		system = templateSystemPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", input.Title)
	if input.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", input.Description)
	}
	fmt.Fprintf(&b, "Kind: %s\n", input.Kind)

	if templateBody != "" {
		fmt.Fprintf(&b, "\nTemplate:\n%s\n", templateBody)
	}

	if len(chunks) > 0 {
		b.WriteString("\nSource excerpts:\n")
		for i, c := range chunks {
			fmt.Fprintf(&b, "[%d] (%s, similarity %.2f)\n%s\n", i+1, c.SourceID, c.Similarity, c.Content)
		}
	}

	return system, b.String()
}
