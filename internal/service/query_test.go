package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
)

type fakeQueryLog struct {
	mu       sync.Mutex
	entries  []model.QueryLogEntry
	feedback []model.FeedbackRequest
	err      error
}

func (f *fakeQueryLog) LogQuery(_ context.Context, entry *model.QueryLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeQueryLog) LogFeedback(_ context.Context, fb *model.FeedbackRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.feedback = append(f.feedback, *fb)
	return nil
}

func (f *fakeQueryLog) RecentQueries(_ context.Context, limit int) ([]model.QueryLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.QueryLogEntry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeQueryLog) FeedbackCount(_ context.Context, queryID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fb := range f.feedback {
		if fb.QueryID == queryID {
			n++
		}
	}
	return n, nil
}

func newQueryService(t *testing.T, queryLog QueryLog) *QueryService {
	t.Helper()
	orch := pipeline.New(nil, pipeline.DefaultOptions(), zaptest.NewLogger(t))
	return NewQueryService(loadStore(t), orch, queryLog, zaptest.NewLogger(t))
}

func TestQueryService_Resolve(t *testing.T) {
	queryLog := &fakeQueryLog{}
	svc := newQueryService(t, queryLog)

	resp, err := svc.Resolve(context.Background(), &model.QueryRequest{
		Query:     "  Show me properties under 1 crore  ",
		ProjectID: "greenfield-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, pipeline.StageKeyword, resp.Stage)
	assert.Equal(t, model.ResultGeneral, resp.Result.Type)
	assert.Contains(t, resp.Result.Text, "No properties found under ₹1 Crore")
	assert.GreaterOrEqual(t, resp.ElapsedMs, int64(0))

	svc.Wait()
	require.Len(t, queryLog.entries, 1)
	entry := queryLog.entries[0]
	assert.Equal(t, resp.ID, entry.ID)
	assert.Equal(t, "Show me properties under 1 crore", entry.Query)
	assert.Equal(t, "greenfield-1", entry.ProjectID)
	assert.Equal(t, pipeline.StageKeyword, entry.Stage)
	assert.Equal(t, model.ResultGeneral, entry.ResultType)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestQueryService_ResolveObserved(t *testing.T) {
	svc := newQueryService(t, nil)

	var events []pipeline.StageEvent
	resp, err := svc.ResolveObserved(context.Background(), &model.QueryRequest{Query: "zzz"}, func(e pipeline.StageEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageDefault, resp.Stage)
	assert.Len(t, events, 5)
	assert.Equal(t, pipeline.StageDefault, events[len(events)-1].Stage)
}

func TestQueryService_ResolveErrors(t *testing.T) {
	svc := newQueryService(t, nil)

	_, err := svc.Resolve(context.Background(), &model.QueryRequest{Query: " \t "})
	assert.ErrorIs(t, err, pipeline.ErrEmptyQuery)

	_, err = svc.Resolve(context.Background(), &model.QueryRequest{Query: "3 BHK", ProjectID: "atlantis-9"})
	assert.ErrorIs(t, err, catalog.ErrProjectNotFound)
}

func TestQueryService_LogFailureDoesNotFailQuery(t *testing.T) {
	svc := newQueryService(t, &fakeQueryLog{err: errors.New("disk full")})

	resp, err := svc.Resolve(context.Background(), &model.QueryRequest{Query: "Sea View", ProjectID: "greenfield-1"})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageQuickFilter, resp.Stage)
	svc.Wait()
}

func TestQueryService_RelatedIDsAreLogged(t *testing.T) {
	queryLog := &fakeQueryLog{}
	svc := newQueryService(t, queryLog)

	resp, err := svc.Resolve(context.Background(), &model.QueryRequest{Query: "3 BHK", ProjectID: "greenfield-1"})
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, queryLog.entries, 1)
	assert.Equal(t, resp.Result.RelatedIDs(), []string(queryLog.entries[0].RelatedIDs))
}

func TestQueryService_Feedback(t *testing.T) {
	queryLog := &fakeQueryLog{}
	svc := newQueryService(t, queryLog)

	for _, action := range []string{ActionHelpful, ActionNotHelpful, ActionContact, ActionViewUnit} {
		require.NoError(t, svc.Feedback(context.Background(), &model.FeedbackRequest{QueryID: "q-1", Action: action, ItemID: "unit-1"}))
	}
	assert.Len(t, queryLog.feedback, 4)

	err := svc.Feedback(context.Background(), &model.FeedbackRequest{QueryID: "q-1", Action: strings.ToUpper(ActionHelpful)})
	assert.ErrorIs(t, err, ErrInvalidAction)

	noLog := newQueryService(t, nil)
	err = noLog.Feedback(context.Background(), &model.FeedbackRequest{QueryID: "q-1", Action: ActionHelpful})
	assert.ErrorIs(t, err, ErrFeedbackDisabled)
}

func TestQueryService_History(t *testing.T) {
	queryLog := &fakeQueryLog{}
	svc := newQueryService(t, queryLog)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, &model.QueryRequest{Query: "Sea View"})
	require.NoError(t, err)
	svc.Wait()
	second, err := svc.Resolve(ctx, &model.QueryRequest{Query: "penthouse", ProjectID: "skyview-3"})
	require.NoError(t, err)
	svc.Wait()

	require.NoError(t, svc.Feedback(ctx, &model.FeedbackRequest{QueryID: first.ID, Action: ActionHelpful}))
	require.NoError(t, svc.Feedback(ctx, &model.FeedbackRequest{QueryID: first.ID, Action: ActionViewUnit, ItemID: "unit-1"}))

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, "skyview-3", history[0].ProjectID)
	assert.Zero(t, history[0].FeedbackCount)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, 2, history[1].FeedbackCount)

	history, err = svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = newQueryService(t, nil).History(ctx, 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = newQueryService(t, &fakeQueryLog{err: errors.New("disk full")}).History(ctx, 10)
	assert.Error(t, err)
}
