package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"salesdesk/internal/logger"
	"salesdesk/internal/model"
)

// ErrEmptyQuery is returned for a blank query
var ErrEmptyQuery = errors.New("empty query")

// Stage names, in the order they run.
const (
	StageRemote      = "remote-model"
	StageQuickFilter = "quick-filter"
	StageFAQ         = "faq"
	StageKeyword     = "keyword"
	StageDefault     = "default"
)

// Stage outcomes reported to observers.
const (
	OutcomeSkipped  = "skipped"
	OutcomeMiss     = "miss"
	OutcomeAnswered = "answered"
)

// AssistantTroubleText is what the remote stage yields when the assistant
// failed. The remote stage never accepts it.
const AssistantTroubleText = "I'm having trouble accessing the AI assistant. Please try using the filter options or rephrasing your question."

const failureMarker = "having trouble"

var naturalLanguageMarkers = []string{
	"what", "how", "where", "when", "why", "tell me", "show me", "available under", "near",
}

// Assistant is the remote-model capability.
type Assistant interface {
	Ask(ctx context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error)
}

// Options tunes the orchestrator
type Options struct {
	// RemoteFirst lets natural-language queries go to the assistant before
	// any deterministic matcher.
	RemoteFirst bool
	// NaturalLanguageMinLength: queries longer than this many characters are
	// treated as natural language.
	NaturalLanguageMinLength int
}

// DefaultOptions matches the production defaults
func DefaultOptions() Options {
	return Options{RemoteFirst: true, NaturalLanguageMinLength: 30}
}

// StageEvent reports what one stage did with a query
type StageEvent struct {
	Stage   string `json:"stage"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Observer receives stage events in order. It must not block for long.
type Observer func(StageEvent)

// Resolution is the pipeline's answer together with the stage that gave it
type Resolution struct {
	Result *model.QueryResult
	Stage  string
	// Detail names the processor or quick filter behind the answer, if any.
	Detail string
}

type stage struct {
	name string
	// applies gates the stage; a stage that does not apply is skipped.
	applies func(in *Input) bool
	run     func(ctx context.Context, in *Input) (*model.QueryResult, string)
	// accept is the short-circuit predicate.
	accept func(r *model.QueryResult) bool
}

// Orchestrator runs the stages in order and returns the first accepted answer.
type Orchestrator struct {
	assistant Assistant
	opts      Options
	logger    *zap.Logger
	stages    []stage
}

// New builds an orchestrator. assistant may be nil, which disables the
// remote stage.
func New(assistant Assistant, opts Options, log *zap.Logger) *Orchestrator {
	if opts.NaturalLanguageMinLength <= 0 {
		opts.NaturalLanguageMinLength = DefaultOptions().NaturalLanguageMinLength
	}
	o := &Orchestrator{
		assistant: assistant,
		opts:      opts,
		logger:    logger.OrNop(log),
	}
	o.stages = []stage{
		{name: StageRemote, applies: o.remoteApplies, run: o.runRemote, accept: acceptRemote},
		{name: StageQuickFilter, run: runQuickFilter, accept: notNil},
		{name: StageFAQ, run: runFAQ, accept: notNil},
		{name: StageKeyword, run: runKeyword, accept: notNil},
		{name: StageDefault, run: runDefault, accept: notNil},
	}
	return o
}

// Resolve answers in.Query. It fails only for a blank query or a done context.
func (o *Orchestrator) Resolve(ctx context.Context, in *Input) (*Resolution, error) {
	return o.ResolveObserved(ctx, in, nil)
}

// ResolveObserved is Resolve with a callback per stage.
func (o *Orchestrator) ResolveObserved(ctx context.Context, in *Input, observe Observer) (*Resolution, error) {
	if in == nil || strings.TrimSpace(in.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if observe == nil {
		observe = func(StageEvent) {}
	}

	for _, st := range o.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if st.applies != nil && !st.applies(in) {
			observe(StageEvent{Stage: st.name, Outcome: OutcomeSkipped})
			continue
		}

		result, detail := st.run(ctx, in)
		if !st.accept(result) {
			observe(StageEvent{Stage: st.name, Outcome: OutcomeMiss})
			continue
		}

		observe(StageEvent{Stage: st.name, Outcome: OutcomeAnswered, Detail: detail})
		o.logger.Debug("query resolved",
			zap.String("stage", st.name),
			zap.String("detail", detail),
			zap.String("type", string(result.Type)),
		)
		return &Resolution{Result: result, Stage: st.name, Detail: detail}, nil
	}

	// the default stage always answers
	return nil, fmt.Errorf("no stage answered %q", in.Query)
}

// IsNaturalLanguage reports whether a query reads like a sentence rather
// than a keyword: it has an interrogative or imperative marker, or is
// longer than minLength characters.
func IsNaturalLanguage(query string, minLength int) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, naturalLanguageMarkers) || utf8.RuneCountInString(query) > minLength
}

func (o *Orchestrator) remoteApplies(in *Input) bool {
	return o.assistant != nil && o.opts.RemoteFirst && IsNaturalLanguage(in.Query, o.opts.NaturalLanguageMinLength)
}

func (o *Orchestrator) runRemote(ctx context.Context, in *Input) (*model.QueryResult, string) {
	req := &model.AssistantRequest{
		Query:       in.Query,
		ProjectData: in.Project,
		UnitsData:   in.scoped(in.Units),
		FAQsData:    in.FAQs,
	}

	resp, err := o.assistant.Ask(ctx, req)
	switch {
	case err != nil:
		o.logger.Warn("⚠️ assistant failed, falling back to matchers", zap.Error(err))
		return general(AssistantTroubleText), ""
	case resp == nil:
		return general(AssistantTroubleText), ""
	case resp.Fallback != "":
		o.logger.Info("assistant answered from local fallback, continuing", zap.String("reason", resp.Fallback))
		return general(AssistantTroubleText), ""
	}

	typ := model.ResultGeneral
	if len(resp.RelevantUnits) > 0 {
		typ = model.ResultUnit
	}
	return &model.QueryResult{
		Text:           resp.Response,
		Type:           typ,
		RelatedItems:   model.UnitItems(resp.RelevantUnits),
		Confidence:     resp.Confidence,
		IsLLMGenerated: true,
	}, ""
}

func acceptRemote(r *model.QueryResult) bool {
	return r != nil && r.Text != "" && !strings.Contains(r.Text, failureMarker)
}

func notNil(r *model.QueryResult) bool {
	return r != nil
}

func runQuickFilter(_ context.Context, in *Input) (*model.QueryResult, string) {
	f, ok := MatchQuickFilter(in.Query)
	if !ok {
		return nil, ""
	}
	r, _ := RunProcessors(in.withQuery(f.Query))
	if r == nil {
		return nil, ""
	}
	out := *r
	out.Text += FilterSuffix(f)
	return &out, f.ID
}

func runFAQ(_ context.Context, in *Input) (*model.QueryResult, string) {
	r := MatchFAQ(in.Query, in.Project, in.FAQs)
	if r == nil {
		return nil, ""
	}
	if ids := r.RelatedIDs(); len(ids) > 0 {
		return r, ids[0]
	}
	return r, ""
}

func runKeyword(_ context.Context, in *Input) (*model.QueryResult, string) {
	return RunProcessors(in)
}

func runDefault(_ context.Context, in *Input) (*model.QueryResult, string) {
	return DefaultResult(in.Project), ""
}

// DefaultResult is the answer when nothing matched: a prompt to rephrase
// listing the first three categories.
func DefaultResult(project *model.Project) *model.QueryResult {
	name := "our properties"
	if project != nil {
		name = project.Name
	}
	var suggestions []string
	for _, c := range categories[:3] {
		suggestions = append(suggestions, c.Name)
	}
	return general(fmt.Sprintf("I'm not sure about that specific question. Could you please rephrase your question about %s? \n\nYou can ask about: %s, and more. \n\nTry being more specific about what aspect you'd like to know about.",
		name, strings.Join(suggestions, ", ")))
}
