package chi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
	"github.com/kailas-cloud/seqclass/internal/fasta"
)

// ErrorCode is a machine-readable error classification.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInvalidConfig    ErrorCode = "invalid_config"
	ErrorCodeDatabaseNotFound ErrorCode = "database_not_found"
	ErrorCodeDatabaseBuild    ErrorCode = "database_build_failed"
	ErrorCodeSearchFailed     ErrorCode = "search_failed"
	ErrorCodeRunNotFound      ErrorCode = "run_not_found"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ThresholdsOverride replaces the server thresholds for one request.
type ThresholdsOverride struct {
	EValue   *float64 `json:"e_value_threshold,omitempty"`
	Identity *float64 `json:"identity_threshold,omitempty"`
}

func (o ThresholdsOverride) apply(base classification.Thresholds) classification.Thresholds {
	if o.EValue != nil {
		base.EValue = *o.EValue
	}
	if o.Identity != nil {
		base.Identity = *o.Identity
	}
	return base
}

// QueryItem is one query sequence.
type QueryItem struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Sequence    string `json:"sequence"`
}

// ClassifyRequest is the body of POST /classify. Queries come either as
// items or as FASTA text.
type ClassifyRequest struct {
	Queries   []QueryItem `json:"queries,omitempty"`
	FASTA     string      `json:"fasta,omitempty"`
	Databases []string    `json:"databases,omitempty"`
	ThresholdsOverride
}

// ClassifyHitsRequest is the body of POST /classify/hits.
type ClassifyHitsRequest struct {
	Results map[string][]HitItem `json:"results"`
	ThresholdsOverride
}

// SelectBestRequest is the body of POST /select-best.
type SelectBestRequest struct {
	Hits []HitItem `json:"hits"`
	ThresholdsOverride
}

// HitItem is one search hit on the wire. bit_score is required; absent
// e-value and identity are omitted.
type HitItem struct {
	Database  string   `json:"database"`
	SubjectID string   `json:"subject_id"`
	BitScore  *float64 `json:"bit_score"`
	EValue    *float64 `json:"e_value,omitempty"`
	Identity  *float64 `json:"identity,omitempty"`
	Label     string   `json:"label,omitempty"`
}

// ScoredHitItem is a ranked hit with its normalized score.
type ScoredHitItem struct {
	HitItem
	Normalized float64 `json:"normalized_score"`
	Rank       int     `json:"rank"`
}

// QueryResult is the classification of one query.
type QueryResult struct {
	QueryID string          `json:"query_id"`
	Label   string          `json:"label"`
	Hits    []ScoredHitItem `json:"hits"`
}

// ClassifyResponse is returned by both classify endpoints.
type ClassifyResponse struct {
	Predictions  map[string]string `json:"predictions"`
	Results      []QueryResult     `json:"results"`
	Total        int               `json:"total"`
	Unclassified int               `json:"unclassified"`
}

// SelectBestResponse is the body of POST /select-best.
type SelectBestResponse struct {
	Found bool           `json:"found"`
	Label string         `json:"label"`
	Best  *ScoredHitItem `json:"best,omitempty"`
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Predictions map[string]string `json:"predictions"`
	Truth       map[string]string `json:"truth"`
	Params      evaluation.Params `json:"params"`
}

// RunListResponse is the body of GET /runs.
type RunListResponse struct {
	Items []evaluation.RunSummary `json:"items"`
}

// CompareResponse is the body of GET /runs/compare.
type CompareResponse struct {
	Dimension evaluation.Dimension `json:"dimension"`
	Effects   []evaluation.Effect  `json:"effects"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func (r ClassifyRequest) records() ([]sequence.Record, error) {
	if r.FASTA != "" {
		if len(r.Queries) > 0 {
			return nil, fmt.Errorf("queries and fasta are mutually exclusive: %w", domain.ErrInvalidInput)
		}
		recs, err := fasta.Read(strings.NewReader(r.FASTA))
		if err != nil {
			return nil, fmt.Errorf("parse fasta: %w", err)
		}
		return recs, nil
	}
	if len(r.Queries) == 0 {
		return nil, fmt.Errorf("at least one query is required: %w", domain.ErrInvalidInput)
	}
	recs := make([]sequence.Record, len(r.Queries))
	for i, q := range r.Queries {
		seq := strings.ToUpper(strings.Join(strings.Fields(q.Sequence), ""))
		if seq == "" {
			return nil, fmt.Errorf("query %q: sequence is required: %w", q.ID, domain.ErrInvalidInput)
		}
		recs[i] = sequence.Record{ID: q.ID, Description: q.Description, Seq: []byte(seq)}
	}
	return recs, nil
}

// hitFromItem converts a wire hit. An absent bit_score is rejected.
func hitFromItem(it HitItem) (hit.Hit, error) {
	if it.BitScore == nil {
		return hit.Hit{}, domain.NewInvalidInput("bit_score", "required")
	}
	h := hit.New(it.Database, it.SubjectID, *it.BitScore).WithLabel(it.Label)
	if it.EValue != nil {
		h = h.WithEValue(*it.EValue)
	}
	if it.Identity != nil {
		h = h.WithIdentity(*it.Identity)
	}
	return h, nil
}

func hitsFromItems(query string, items []HitItem) ([]hit.Hit, error) {
	hits := make([]hit.Hit, len(items))
	for i, it := range items {
		h, err := hitFromItem(it)
		if err != nil {
			return nil, domain.WithLocation(err, query, i)
		}
		hits[i] = h
	}
	return hits, nil
}

// resultSetFromItems converts queries in sorted order so the reported
// error is the same on every request.
func resultSetFromItems(results map[string][]HitItem) (hit.ResultSet, error) {
	queries := make([]string, 0, len(results))
	for q := range results {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	set := make(hit.ResultSet, len(results))
	for _, q := range queries {
		hits, err := hitsFromItems(q, results[q])
		if err != nil {
			return nil, err
		}
		set[q] = hits
	}
	return set, nil
}

func hitToItem(h hit.Hit) HitItem {
	bitScore := h.BitScore()
	it := HitItem{
		Database:  h.Database(),
		SubjectID: h.SubjectID(),
		BitScore:  &bitScore,
		Label:     h.Label(),
	}
	if v, ok := h.EValue(); ok {
		it.EValue = &v
	}
	if v, ok := h.Identity(); ok {
		it.Identity = &v
	}
	return it
}

func scoredToItem(s hit.Scored) ScoredHitItem {
	return ScoredHitItem{HitItem: hitToItem(s.Hit), Normalized: s.Normalized, Rank: s.Rank}
}

func outcomeToResponse(out classification.Outcome) ClassifyResponse {
	ids := make([]string, 0, len(out.Predictions))
	for q := range out.Predictions {
		ids = append(ids, q)
	}
	sort.Strings(ids)

	results := make([]QueryResult, len(ids))
	for i, q := range ids {
		ranked := out.Ranked[q]
		items := make([]ScoredHitItem, len(ranked))
		for j, s := range ranked {
			items[j] = scoredToItem(s)
		}
		results[i] = QueryResult{QueryID: q, Label: out.Predictions[q], Hits: items}
	}

	return ClassifyResponse{
		Predictions:  out.Predictions,
		Results:      results,
		Total:        len(ids),
		Unclassified: out.Unclassified(),
	}
}
