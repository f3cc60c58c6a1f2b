package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
	"github.com/mmichie/ensemble/pkg/ensemble/intent"
	"github.com/mmichie/ensemble/pkg/ensemble/prompt"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

// FatalMessage is the literal terminal message for a dual base failure.
const FatalMessage = "FATAL: All base models failed to generate a response."

const defaultEventBuffer = 64

// Request is one orchestration request. History is the full transcript
// as the caller holds it; the orchestrator only reads the prefix that
// precedes the submitted prompt and never mutates it.
type Request struct {
	Prompt     string
	Constraint string
	History    provider.History
}

// ProviderSource resolves a provider tag and model to an invocable
// provider. *provider.Registry implements it.
type ProviderSource interface {
	Provider(tag, model string) (provider.Provider, error)
}

// Classifier labels a request with an intent. *intent.Classifier
// implements it.
type Classifier interface {
	Classify(ctx context.Context, userPrompt string, history provider.History) (intent.Classification, error)
}

// Orchestrator drives one request through classification, parallel
// generation, fallback decision and synthesis, emitting an ordered
// event stream along the way.
type Orchestrator struct {
	providers  ProviderSource
	registry   *Registry
	classifier Classifier
	cache      *ResponseCache
	buffer     int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithCache enables response memoization for base-provider calls.
// Intended for batch runs that re-evaluate the same prompt.
func WithCache(cache *ResponseCache) Option {
	return func(o *Orchestrator) {
		o.cache = cache
	}
}

// WithEventBuffer sets the event channel buffer size
func WithEventBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// New creates an orchestrator
func New(providers ProviderSource, registry *Registry, classifier Classifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers:  providers,
		registry:   registry,
		classifier: classifier,
		buffer:     defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline and returns the ordered event stream. The
// channel is closed after the terminal event. An empty prompt is a user
// error rejected before any pipeline state exists.
func (o *Orchestrator) Run(ctx context.Context, req Request) (<-chan Event, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, aierrors.ErrEmptyPrompt
	}

	out := make(chan Event, o.buffer)
	go func() {
		defer close(out)
		o.execute(ctx, req, out)
	}()
	return out, nil
}

// Snapshot is one settled provider result in an aggregate record.
type Snapshot struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// Outcome is the aggregate record for non-streaming (batch) use.
type Outcome struct {
	FinalResponse       string   `json:"finalResponse"`
	ProviderA           Snapshot `json:"providerA"`
	ProviderB           Snapshot `json:"providerB"`
	PipelineName        string   `json:"pipelineName"`
	FallbackLog         string   `json:"fallbackLog"`
	ClassifierReasoning string   `json:"classifierReasoning"`
	RequestID           string   `json:"requestId"`
	Failed              bool     `json:"failed"`
}

// Err surfaces the dual-failure condition for errors.Is matching. A
// healthy or degraded-but-answered run returns nil.
func (o Outcome) Err() error {
	if o.Failed {
		return aierrors.ErrAllProvidersFailed
	}
	return nil
}

// RunCollect executes the pipeline and returns the aggregate outcome.
// Request-fatal classifier failures are returned as errors; a dual base
// failure is a normal outcome carrying the fatal message.
func (o *Orchestrator) RunCollect(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Outcome{}, aierrors.ErrEmptyPrompt
	}

	out := make(chan Event, o.buffer)
	var st *runState
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		st = o.execute(ctx, req, out)
	}()

	for range out {
		// The stream is drained; the outcome is read from the run state.
	}
	<-done

	if st.err != nil {
		return Outcome{}, st.err
	}

	return Outcome{
		FinalResponse:       st.finalResponse,
		ProviderA:           Snapshot{Text: st.resultA.Text(), Failed: st.resultA.Failed()},
		ProviderB:           Snapshot{Text: st.resultB.Text(), Failed: st.resultB.Failed()},
		PipelineName:        st.pipelineName,
		FallbackLog:         strings.Join(st.fallbackLog, " "),
		ClassifierReasoning: st.reasoning,
		RequestID:           st.requestID,
		Failed:              st.fatal,
	}, nil
}

// runState is the orchestrator's view of one request after completion
type runState struct {
	requestID     string
	pipelineName  string
	reasoning     string
	resultA       *ProviderResult
	resultB       *ProviderResult
	fallbackLog   []string
	finalResponse string
	fatal         bool
	err           error
}

// execute is the state machine. It is the stream's only writer.
func (o *Orchestrator) execute(ctx context.Context, req Request, out chan<- Event) *runState {
	st := &runState{
		requestID: uuid.NewString(),
		resultA:   NewProviderResult(),
		resultB:   NewProviderResult(),
	}

	emit := func(ev Event) bool {
		ev.RequestID = st.requestID
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	history := historyPrefix(req.History, req.Prompt)

	// CLASSIFYING
	if !emit(Event{Type: EventStatus, Message: "Classifying request intent..."}) {
		st.err = ctx.Err()
		return st
	}

	verdict, err := o.classifier.Classify(ctx, req.Prompt, history)
	if err != nil {
		st.err = fmt.Errorf("%w: %w", aierrors.ErrClassification, err)
		emit(Event{Type: EventError, Message: st.err.Error()})
		return st
	}
	st.reasoning = verdict.Reasoning

	cfg, err := o.registry.Lookup(verdict.Intent)
	if err != nil {
		st.err = err
		emit(Event{Type: EventError, Message: err.Error()})
		return st
	}
	st.pipelineName = cfg.Name

	if !emit(Event{
		Type:                EventInitialData,
		PipelineName:        cfg.Name,
		ClassifierReasoning: verdict.Reasoning,
	}) {
		st.err = ctx.Err()
		return st
	}

	// GENERATING: fork both base providers, join before deciding
	emit(Event{Type: EventStatus, Message: fmt.Sprintf(
		"Generating drafts with %s and %s in parallel...", cfg.BaseA, cfg.BaseB)})

	o.generate(ctx, req, history, cfg, st, out)

	// DECIDING
	decision := Decide(st.resultA.Failed(), st.resultB.Failed())
	if log := decision.FallbackLog(cfg); log != "" {
		st.fallbackLog = append(st.fallbackLog, log)
		emit(Event{Type: EventFallbackLog, Log: log})
	}

	if decision == AbortDualFailure {
		st.fatal = true
		st.finalResponse = FatalMessage
		emit(Event{Type: EventDone, Message: FatalMessage})
		return st
	}

	// SYNTHESIZING
	o.synthesize(ctx, req, history, cfg, decision, st, emit)

	// DONE
	emit(Event{Type: EventDone, Message: "Pipeline completed."})
	return st
}

// side pairs one base invocation with its stream identity
type side struct {
	label     string
	ref       ModelRef
	chunkType EventType
	result    *ProviderResult
}

// generate runs the two base invocations concurrently and forwards
// their chunks, interleaved by arrival, until both have settled. The
// close of the internal channel is the join barrier.
func (o *Orchestrator) generate(ctx context.Context, req Request, history provider.History, cfg Config, st *runState, out chan<- Event) {
	sides := []side{
		{label: "base model A", ref: cfg.BaseA, chunkType: EventModelAChunk, result: st.resultA},
		{label: "base model B", ref: cfg.BaseB, chunkType: EventModelBChunk, result: st.resultB},
	}

	preq := provider.Request{
		Prompt:      req.Prompt,
		History:     history,
		Temperature: cfg.Temperature,
	}

	chunks := make(chan Event, o.buffer)
	var wg sync.WaitGroup
	wg.Add(len(sides))
	for _, s := range sides {
		go func(s side) {
			defer wg.Done()
			o.generateOne(ctx, preq, s, chunks)
		}(s)
	}
	go func() {
		wg.Wait()
		close(chunks)
	}()

	for ev := range chunks {
		ev.RequestID = st.requestID
		select {
		case out <- ev:
		case <-ctx.Done():
			// Keep draining so the producers can settle.
		}
	}
}

// generateOne streams one base invocation into its result. Any error is
// sealed into the result; a human-readable marker is emitted as content
// but the failed flag is the authoritative signal.
func (o *Orchestrator) generateOne(ctx context.Context, preq provider.Request, s side, chunks chan<- Event) {
	handler := func(chunk provider.ResponseChunk) error {
		if chunk.Content == "" {
			return nil
		}
		s.result.Append(chunk.Content)
		chunks <- Event{Type: s.chunkType, Text: chunk.Content}
		return nil
	}

	if o.cache != nil {
		if text, ok := o.cache.Get(s.ref, preq.Prompt); ok {
			if err := provider.SimulateStreaming(ctx, text, handler); err != nil {
				o.failSide(s, err, chunks)
			}
			return
		}
	}

	p, err := o.providers.Provider(s.ref.Provider, s.ref.Model)
	if err != nil {
		o.failSide(s, err, chunks)
		return
	}

	if err := p.GenerateStreamingResponse(ctx, preq, handler); err != nil {
		o.failSide(s, err, chunks)
		return
	}

	if o.cache != nil {
		o.cache.Put(s.ref, preq.Prompt, s.result.Text())
	}
}

func (o *Orchestrator) failSide(s side, err error, chunks chan<- Event) {
	s.result.Fail(err)
	chunks <- Event{
		Type: s.chunkType,
		Text: fmt.Sprintf("\n[%s unavailable: %v]\n", s.label, err),
	}
}

// synthesize builds the synthesis or refinement prompt and streams the
// synthesizer. A synthesizer failure degrades to surfacing the better
// base draft; it never fails the request.
func (o *Orchestrator) synthesize(ctx context.Context, req Request, history provider.History, cfg Config, decision Decision, st *runState, emit func(Event) bool) {
	var synthesisPrompt, status string
	switch decision {
	case RefineA:
		synthesisPrompt = prompt.Refinement(req.Prompt, st.resultA.Text(), req.Constraint, history)
		status = fmt.Sprintf("Refining the surviving draft with %s...", cfg.Synthesizer)
	case RefineB:
		synthesisPrompt = prompt.Refinement(req.Prompt, st.resultB.Text(), req.Constraint, history)
		status = fmt.Sprintf("Refining the surviving draft with %s...", cfg.Synthesizer)
	default:
		synthesisPrompt = prompt.Synthesis(req.Prompt, st.resultA.Text(), st.resultB.Text(), req.Constraint, history)
		status = fmt.Sprintf("Synthesizing final response with %s...", cfg.Synthesizer)
	}
	emit(Event{Type: EventStatus, Message: status})

	synthesis := NewProviderResult()
	handler := func(chunk provider.ResponseChunk) error {
		if chunk.Content == "" {
			return nil
		}
		synthesis.Append(chunk.Content)
		if !emit(Event{Type: EventSynthesisChunk, Text: chunk.Content}) {
			return ctx.Err()
		}
		return nil
	}

	p, err := o.providers.Provider(cfg.Synthesizer.Provider, cfg.Synthesizer.Model)
	if err == nil {
		err = p.GenerateStreamingResponse(ctx, provider.Request{
			Prompt:      synthesisPrompt,
			Temperature: cfg.Temperature,
		}, handler)
	}
	if err == nil {
		st.finalResponse = synthesis.Text()
		return
	}

	// Degrade: surface the better base draft. Prefer A unless A failed.
	synthesis.Fail(err)
	best, bestRef := st.resultA, cfg.BaseA
	if st.resultA.Failed() {
		best, bestRef = st.resultB, cfg.BaseB
	}

	log := fmt.Sprintf("Synthesizer %s failed (%v); returning the unrefined draft from %s.",
		cfg.Synthesizer, err, bestRef)
	st.fallbackLog = append(st.fallbackLog, log)
	emit(Event{Type: EventFallbackLog, Log: log})

	st.finalResponse = best.Text()
	emit(Event{
		Type: EventSynthesisChunk,
		Text: fmt.Sprintf("\n--- Unrefined draft from %s ---\n%s", bestRef, best.Text()),
	})
}

// historyPrefix returns the history excluding the just-submitted turn.
// Callers commonly send the transcript with the current prompt already
// appended; the pipeline prompts must only see what preceded it.
func historyPrefix(history provider.History, userPrompt string) provider.History {
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Role == provider.RoleUser && last.Content == userPrompt {
			return history[:n-1]
		}
	}
	return history
}
