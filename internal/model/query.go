package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResultType classifies what a QueryResult talks about
type ResultType string

const (
	ResultGeneral ResultType = "general"
	ResultUnit    ResultType = "unit"
	ResultProject ResultType = "project"
	ResultFAQ     ResultType = "faq"
)

// Confidence of a generated answer
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ItemKind tags a RelatedItem
type ItemKind string

const (
	ItemUnit    ItemKind = "unit"
	ItemProject ItemKind = "project"
	ItemFAQ     ItemKind = "faq"
)

// RelatedItem references one catalogue record a result talks about.
// Exactly one of Unit, Project or FAQ is set, matching Kind.
type RelatedItem struct {
	Kind    ItemKind
	Unit    *Unit
	Project *Project
	FAQ     *FAQ
}

// ID returns the id of the referenced record.
func (r RelatedItem) ID() string {
	switch r.Kind {
	case ItemUnit:
		if r.Unit != nil {
			return r.Unit.ID
		}
	case ItemProject:
		if r.Project != nil {
			return r.Project.ID
		}
	case ItemFAQ:
		if r.FAQ != nil {
			return r.FAQ.ID
		}
	}
	return ""
}

// UnitItems wraps units as related items, keeping order.
func UnitItems(units []Unit) []RelatedItem {
	items := make([]RelatedItem, 0, len(units))
	for i := range units {
		u := units[i]
		items = append(items, RelatedItem{Kind: ItemUnit, Unit: &u})
	}
	return items
}

// ProjectItem wraps a project as a related item.
func ProjectItem(p *Project) RelatedItem {
	return RelatedItem{Kind: ItemProject, Project: p}
}

// FAQItem wraps an FAQ as a related item.
func FAQItem(f FAQ) RelatedItem {
	return RelatedItem{Kind: ItemFAQ, FAQ: &f}
}

// QueryResult is the answer the pipeline produces for one query
type QueryResult struct {
	Text           string        `json:"text"`
	Type           ResultType    `json:"type"`
	RelatedItems   []RelatedItem `json:"relatedItems,omitempty"`
	Confidence     Confidence    `json:"confidence,omitempty"`
	IsLLMGenerated bool          `json:"isLLMGenerated,omitempty"`
}

// Units returns the related units in order.
func (r *QueryResult) Units() []Unit {
	if r == nil {
		return nil
	}
	var out []Unit
	for _, item := range r.RelatedItems {
		if item.Kind == ItemUnit && item.Unit != nil {
			out = append(out, *item.Unit)
		}
	}
	return out
}

// RelatedIDs returns the ids of every related item in order.
func (r *QueryResult) RelatedIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.RelatedItems))
	for _, item := range r.RelatedItems {
		ids = append(ids, item.ID())
	}
	return ids
}

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Query     string `json:"query" binding:"required"`
	ProjectID string `json:"project_id,omitempty"`
}

// QueryResponse wraps a resolved query
type QueryResponse struct {
	ID        string       `json:"id"`
	Result    *QueryResult `json:"result"`
	Stage     string       `json:"stage"`
	ElapsedMs int64        `json:"elapsed_ms"`
}

// QueryLogEntry is one row of the query log
type QueryLogEntry struct {
	ID         string     `json:"id" db:"id"`
	Query      string     `json:"query" db:"query"`
	ProjectID  string     `json:"project_id,omitempty" db:"project_id"`
	Stage      string     `json:"stage" db:"stage"`
	ResultType ResultType `json:"result_type" db:"result_type"`
	RelatedIDs JSONArray  `json:"related_ids" db:"related_ids"`
	ElapsedMs  int64      `json:"elapsed_ms" db:"elapsed_ms"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// QueryHistoryEntry is a logged query with the feedback it received
type QueryHistoryEntry struct {
	QueryLogEntry
	FeedbackCount int `json:"feedback_count"`
}

// FeedbackRequest records what the user did with an answer
type FeedbackRequest struct {
	QueryID string `json:"query_id" binding:"required"`
	Action  string `json:"action" binding:"required"`
	ItemID  string `json:"item_id,omitempty"`
}

// FeedbackResponse represents the response for feedback submission
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UnitFilter narrows units for quick-filter criteria evaluation
type UnitFilter struct {
	ProjectID     string   `json:"project_id,omitempty"`
	PriceMax      *int64   `json:"price_max,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Feature       string   `json:"feature,omitempty"`
	TypeContains  string   `json:"type_contains,omitempty"`
	ProjectStatus string   `json:"project_status,omitempty"`
	AvailableOnly bool     `json:"available_only,omitempty"`
	Ignored       []string `json:"ignored_criteria,omitempty"`
}

// RankedUnit is a unit scored against a UnitFilter
type RankedUnit struct {
	Unit           Unit     `json:"unit"`
	Score          float64  `json:"score"`
	MatchedReasons []string `json:"matched_reasons"`
}

// UnitSearchResponse is returned by the quick-filter units endpoint
type UnitSearchResponse struct {
	Filter  QuickFilter  `json:"filter"`
	Applied UnitFilter   `json:"applied"`
	Results []RankedUnit `json:"results"`
	Total   int          `json:"total"`
}

// FAQEmbedding pairs an FAQ with its vector
type FAQEmbedding struct {
	FAQID     string    `json:"faq_id"`
	ProjectID string    `json:"project_id"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingBatchResponse represents the result of an embedding rebuild
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// MarshalJSON flattens the item so clients see the record fields plus kind.
func (r RelatedItem) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Kind {
	case ItemUnit:
		payload = r.Unit
	case ItemProject:
		payload = r.Project
	case ItemFAQ:
		payload = r.FAQ
	default:
		return nil, fmt.Errorf("unknown related item kind %q", r.Kind)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	kind, _ := json.Marshal(r.Kind)
	fields["kind"] = kind
	return json.Marshal(fields)
}

// UnmarshalJSON reads the flattened form written by MarshalJSON.
func (r *RelatedItem) UnmarshalJSON(data []byte) error {
	var head struct {
		Kind ItemKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	*r = RelatedItem{Kind: head.Kind}
	switch head.Kind {
	case ItemUnit:
		r.Unit = &Unit{}
		return json.Unmarshal(data, r.Unit)
	case ItemProject:
		r.Project = &Project{}
		return json.Unmarshal(data, r.Project)
	case ItemFAQ:
		r.FAQ = &FAQ{}
		return json.Unmarshal(data, r.FAQ)
	default:
		return fmt.Errorf("unknown related item kind %q", head.Kind)
	}
}
