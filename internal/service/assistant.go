package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"salesdesk/internal/cache"
	"salesdesk/internal/logger"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
)

var (
	// ErrAssistantDisabled is returned when no remote model is configured
	ErrAssistantDisabled = errors.New("assistant is disabled")
	// ErrUnknownQuickKind is returned for a quick response kind that does not exist
	ErrUnknownQuickKind = errors.New("unknown quick response kind")
)

// LocalFallbackReason marks answers computed locally after the remote model failed.
const LocalFallbackReason = "AI service temporarily unavailable"

const cacheNamespace = "assistant"

// TokenCallback receives streamed reasoning and answer text.
type TokenCallback func(thinking, content string) error

// Answerer is a remote model that answers assistant requests
type Answerer interface {
	Answer(ctx context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error)
}

// StreamAnswerer can also stream its answer
type StreamAnswerer interface {
	Answerer
	AnswerStream(ctx context.Context, req *model.AssistantRequest, onToken TokenCallback) (*model.AssistantResponse, error)
}

// FAQSearcher finds the FAQs nearest to a query embedding
type FAQSearcher interface {
	NearestFAQs(ctx context.Context, embedding []float32, projectID string, limit int) ([]model.FAQ, error)
}

// AssistantOptions tunes AssistantService
type AssistantOptions struct {
	MaxContextUnits int
	MaxContextFAQs  int
	CacheTTL        time.Duration
}

// AssistantService is the remote-model capability used by the pipeline and
// the assistant endpoints. It bounds the context sent out, caches answers,
// and replaces a failed remote call with a locally computed answer.
type AssistantService struct {
	remote   Answerer
	cache    cache.Client
	embedder Embedder
	faqIndex FAQSearcher
	opts     AssistantOptions
	logger   *zap.Logger
}

var _ pipeline.Assistant = (*AssistantService)(nil)

// NewAssistantService builds the service. remote nil disables it; cacheClient
// may be nil.
func NewAssistantService(remote Answerer, cacheClient cache.Client, opts AssistantOptions, log *zap.Logger) *AssistantService {
	if opts.MaxContextUnits <= 0 {
		opts.MaxContextUnits = 10
	}
	if opts.MaxContextFAQs <= 0 {
		opts.MaxContextFAQs = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &AssistantService{
		remote: remote,
		cache:  cacheClient,
		opts:   opts,
		logger: logger.OrNop(log),
	}
}

// UseSemanticFAQs makes the service send the FAQs nearest to the query
// instead of the first ones.
func (s *AssistantService) UseSemanticFAQs(embedder Embedder, index FAQSearcher) {
	s.embedder = embedder
	s.faqIndex = index
}

// Enabled reports whether a remote model is configured.
func (s *AssistantService) Enabled() bool {
	return s != nil && s.remote != nil
}

// Ask answers req. Remote failures never surface: the answer is then built
// locally, with low confidence and Fallback set. Errors are returned only
// for a blank query, a disabled service or a done context.
func (s *AssistantService) Ask(ctx context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error) {
	return s.ask(ctx, req, nil)
}

// AskStream is Ask with the answer text delivered through onToken. Cached
// and locally computed answers arrive as a single token.
func (s *AssistantService) AskStream(ctx context.Context, req *model.AssistantRequest, onToken TokenCallback) (*model.AssistantResponse, error) {
	if onToken == nil {
		onToken = func(string, string) error { return nil }
	}
	return s.ask(ctx, req, onToken)
}

func (s *AssistantService) ask(ctx context.Context, req *model.AssistantRequest, onToken TokenCallback) (*model.AssistantResponse, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, pipeline.ErrEmptyQuery
	}
	if !s.Enabled() {
		return nil, ErrAssistantDisabled
	}
	start := time.Now()

	trimmed := s.trim(req)
	key := answerKey(trimmed)
	if cached := s.cached(ctx, key); cached != nil {
		if onToken != nil {
			if err := onToken("", cached.Response); err != nil {
				return nil, err
			}
		}
		return cached, nil
	}

	bounded := s.withNearestFAQs(ctx, trimmed)

	var (
		resp *model.AssistantResponse
		err  error
		sent bool
	)
	if streamer, ok := s.remote.(StreamAnswerer); ok && onToken != nil {
		resp, err = streamer.AnswerStream(ctx, bounded, func(thinking, content string) error {
			sent = true
			return onToken(thinking, content)
		})
	} else {
		resp, err = s.remote.Answer(ctx, bounded)
		if err == nil && resp != nil && onToken != nil && resp.Response != "" {
			sent = true
			if cbErr := onToken("", resp.Response); cbErr != nil {
				return nil, cbErr
			}
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil && (resp == nil || resp.Response == "") {
		err = errors.New("assistant returned an empty response")
	}
	if err != nil {
		if sent {
			return nil, fmt.Errorf("assistant stream interrupted: %w", err)
		}
		s.logger.Warn("⚠️ assistant call failed, answering locally",
			zap.String("query", req.Query),
			zap.Error(err),
		)
		fallback := s.localFallback(bounded, start)
		if onToken != nil {
			if cbErr := onToken("", fallback.Response); cbErr != nil {
				return nil, cbErr
			}
		}
		return fallback, nil
	}

	// a remote that answered with its own fallback is retried next time
	if s.cache != nil && resp.Fallback == "" {
		if err := cache.SetJSON(ctx, s.cache, key, resp, s.opts.CacheTTL); err != nil {
			s.logger.Warn("⚠️ failed to cache assistant answer", zap.Error(err))
		}
	}
	return resp, nil
}

// ForgetAnswers drops every cached answer. Run it after the catalogue
// changes; it reports how many answers were dropped.
func (s *AssistantService) ForgetAnswers(ctx context.Context) (int, error) {
	if s == nil || s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.Purge(ctx, cacheNamespace)
	if err != nil {
		return n, fmt.Errorf("purge cached answers: %w", err)
	}
	s.logger.Info("cached answers dropped", zap.Int("count", n))
	return n, nil
}

// answerKey identifies an answer by the question and the context actually
// sent, so a unit that is sold or repriced asks again.
func answerKey(req *model.AssistantRequest) string {
	var units, faqs strings.Builder
	for _, u := range req.UnitsData {
		fmt.Fprintf(&units, "%s|%s|%d;", u.ID, u.Availability, u.Price)
	}
	for _, f := range req.FAQsData {
		faqs.WriteString(f.ID)
		faqs.WriteByte(';')
	}
	return cache.Key(cacheNamespace, req.Query, projectID(req.ProjectData), req.Context, units.String(), faqs.String())
}

func (s *AssistantService) cached(ctx context.Context, key string) *model.AssistantResponse {
	if s.cache == nil {
		return nil
	}
	var resp model.AssistantResponse
	err := cache.GetJSON(ctx, s.cache, key, &resp)
	switch {
	case err == nil:
		resp.Cached = true
		return &resp
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("⚠️ cache read failed", zap.Error(err))
	}
	return nil
}

// trim copies req keeping the first units and FAQs.
func (s *AssistantService) trim(req *model.AssistantRequest) *model.AssistantRequest {
	out := *req
	out.UnitsData = head(req.UnitsData, s.opts.MaxContextUnits)
	out.FAQsData = head(req.FAQsData, s.opts.MaxContextFAQs)
	return &out
}

// withNearestFAQs swaps the leading FAQs for the nearest ones when semantic
// selection is on and the request carries FAQs.
func (s *AssistantService) withNearestFAQs(ctx context.Context, req *model.AssistantRequest) *model.AssistantRequest {
	nearest := s.nearestFAQs(ctx, req)
	if len(nearest) == 0 {
		return req
	}
	out := *req
	out.FAQsData = nearest
	return &out
}

func (s *AssistantService) nearestFAQs(ctx context.Context, req *model.AssistantRequest) []model.FAQ {
	if len(req.FAQsData) == 0 || s.embedder == nil || s.faqIndex == nil || !s.embedder.IsEnabled() {
		return nil
	}
	vectors, err := s.embedder.CreateEmbeddings(ctx, []string{req.Query})
	if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
		s.logger.Warn("⚠️ query embedding failed, using leading FAQs", zap.Error(err))
		return nil
	}
	faqs, err := s.faqIndex.NearestFAQs(ctx, vectors[0], projectID(req.ProjectData), s.opts.MaxContextFAQs)
	if err != nil {
		s.logger.Warn("⚠️ nearest FAQ search failed, using leading FAQs", zap.Error(err))
		return nil
	}
	return faqs
}

func (s *AssistantService) localFallback(req *model.AssistantRequest, start time.Time) *model.AssistantResponse {
	return &model.AssistantResponse{
		Response:      LocalAnswer(req.Query, req.UnitsData, req.ProjectData),
		RelevantUnits: []model.Unit{},
		Confidence:    model.ConfidenceLow,
		ResponseTime:  time.Since(start).Milliseconds(),
		Fallback:      LocalFallbackReason,
	}
}

func projectID(p *model.Project) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// LocalAnswer is the canned answer used when the remote model is
// unreachable. It looks at price, availability and 3 BHK questions and
// otherwise points at the filters.
func LocalAnswer(query string, units []model.Unit, project *model.Project) string {
	lower := strings.ToLower(query)
	name := "Property"
	if project != nil && project.Name != "" {
		name = project.Name
	}

	if strings.Contains(lower, "price") || strings.Contains(lower, "cost") {
		prices := make([]int64, 0, len(units))
		for _, u := range units {
			prices = append(prices, u.Price)
		}
		if lo, hi, ok := pipeline.PriceBounds(prices); ok {
			return fmt.Sprintf("🏠 **%s Pricing**\nPrice Range: ₹%s - %s Cr\n\nAvailability: Multiple units available\n\nFeatures: Contact sales team for current offers and payment plans",
				name, pipeline.CroreString(lo), pipeline.CroreString(hi))
		}
	}

	if strings.Contains(lower, "available") {
		available := 0
		for _, u := range units {
			if u.IsAvailable() {
				available++
			}
		}
		return fmt.Sprintf("🏠 **Availability Update**\nUnits Available: %d units ready for booking\n\nConfiguration: Multiple options available\n\nAvailability: ✅ Available", available)
	}

	if strings.Contains(lower, "3bhk") || strings.Contains(lower, "3 bhk") {
		var threeBed []model.Unit
		for _, u := range units {
			if u.Bedrooms == 3 && u.IsAvailable() {
				threeBed = append(threeBed, u)
			}
		}
		if len(threeBed) > 0 {
			u := threeBed[0]
			return fmt.Sprintf("🏠 3 BHK Apartments\nPrice: ₹%s Cr\n\nArea: %s sq. ft.\n\nFeatures: %s\n\nAvailability: ✅ %d units available",
				pipeline.CroreString(u.Price),
				strconv.FormatFloat(u.Area, 'f', -1, 64),
				strings.Join(head(u.Features, 3), ", "),
				len(threeBed))
		}
	}

	return fmt.Sprintf("🏠 **%s Information**\nQuery: Use specific filters above for targeted results\n\nOptions: Ask about pricing, availability, unit types, amenities\n\nSupport: Sales team available for detailed discussions", name)
}

// Quick response kinds offered as one-click buttons
const (
	QuickLocation     = "location"
	QuickPricing      = "pricing"
	QuickAvailability = "availability"
	QuickAmenities    = "amenities"
)

// QuickKinds lists the quick response kinds in display order.
func QuickKinds() []string {
	return []string{QuickLocation, QuickPricing, QuickAvailability, QuickAmenities}
}

// QuickRequest builds the canned request behind a quick response button.
// Location and amenities questions go out without units.
func QuickRequest(kind string, project *model.Project, units []model.Unit) (*model.AssistantRequest, error) {
	if project == nil {
		return nil, errors.New("quick responses need a project")
	}
	req := &model.AssistantRequest{ProjectData: project, UnitsData: []model.Unit{}, FAQsData: []model.FAQ{}}
	switch kind {
	case QuickLocation:
		req.Query = fmt.Sprintf("Tell me about the location of %s including connectivity and nearby landmarks", project.Name)
		req.Context = model.ContextLocation
	case QuickPricing:
		req.Query = fmt.Sprintf("What is the starting price for %s?", project.Name)
		req.Context = model.ContextPricing
		req.UnitsData = units
	case QuickAvailability:
		req.Query = fmt.Sprintf("How many units are available right now in %s?", project.Name)
		req.Context = model.ContextAvailability
		req.UnitsData = units
	case QuickAmenities:
		req.Query = fmt.Sprintf("What are the key amenities that clients ask about most in %s?", project.Name)
		req.Context = model.ContextAmenities
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuickKind, kind)
	}
	return req, nil
}

// QuickResponse answers one of the quick response buttons for project.
func (s *AssistantService) QuickResponse(ctx context.Context, kind string, project *model.Project, units []model.Unit) (*model.AssistantResponse, error) {
	req, err := QuickRequest(kind, project, units)
	if err != nil {
		return nil, err
	}
	return s.Ask(ctx, req)
}
