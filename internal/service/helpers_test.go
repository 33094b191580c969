package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
)

func loadStore(t *testing.T) *catalog.MemoryStore {
	t.Helper()
	f, err := catalog.LoadFixture("")
	require.NoError(t, err)
	return catalog.NewMemoryStore(f)
}

func snapshot(t *testing.T, projectID string) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.LoadSnapshot(context.Background(), loadStore(t), projectID)
	require.NoError(t, err)
	return snap
}

func allUnits(t *testing.T) []model.Unit {
	t.Helper()
	units, err := loadStore(t).ListUnits(context.Background())
	require.NoError(t, err)
	return units
}

func unitIDs(units []model.Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.ID)
	}
	return out
}

func syntheticUnits(n int) []model.Unit {
	units := make([]model.Unit, n)
	for i := range units {
		units[i] = model.Unit{
			ID:           fmt.Sprintf("u-%d", i+1),
			ProjectID:    "p-1",
			Type:         "Studio",
			Price:        int64(i+1) * 1_000_000,
			Availability: model.Available,
			Features:     model.JSONArray{"Balcony"},
		}
	}
	return units
}

func syntheticFAQs(n int) []model.FAQ {
	faqs := make([]model.FAQ, n)
	for i := range faqs {
		faqs[i] = model.FAQ{ID: fmt.Sprintf("f-%d", i+1), ProjectID: "p-1", Question: "q?", Answer: "a."}
	}
	return faqs
}

// fakeAnswerer is a scripted remote model.
type fakeAnswerer struct {
	mu    sync.Mutex
	resp  *model.AssistantResponse
	err   error
	calls int
	last  *model.AssistantRequest
}

func (f *fakeAnswerer) Answer(_ context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.resp == nil {
		return nil, f.err
	}
	cp := *f.resp
	return &cp, f.err
}

// fakeStreamer streams tokens, then fails with err if set.
type fakeStreamer struct {
	fakeAnswerer
	tokens []string
}

func (f *fakeStreamer) AnswerStream(_ context.Context, req *model.AssistantRequest, onToken TokenCallback) (*model.AssistantResponse, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()

	text := ""
	for _, tok := range f.tokens {
		if err := onToken("", tok); err != nil {
			return nil, err
		}
		text += tok
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.AssistantResponse{Response: text, Confidence: model.ConfidenceHigh}, nil
}

type fakeEmbedder struct {
	enabled bool
	err     error
	texts   []string
}

func (f *fakeEmbedder) IsEnabled() bool { return f.enabled }

func (f *fakeEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}
