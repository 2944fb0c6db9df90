package seqclass

import (
	"context"

	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
	healthuc "github.com/kailas-cloud/seqclass/internal/usecase/health"
)

// --- classifyUseCase mock ---

type mockClassifyUC struct {
	searchFn     func(ctx context.Context, queries []sequence.Record, dbs []database.Database) (hit.ResultSet, error)
	classifyFn   func(ctx context.Context, set hit.ResultSet, th classification.Thresholds) (classification.Outcome, error)
	selectBestFn func(hits []hit.Hit, th classification.Thresholds) (hit.Scored, bool, error)
}

func (m *mockClassifyUC) Search(
	ctx context.Context, queries []sequence.Record, dbs []database.Database,
) (hit.ResultSet, error) {
	return m.searchFn(ctx, queries, dbs)
}

func (m *mockClassifyUC) ClassifyResults(
	ctx context.Context, set hit.ResultSet, th classification.Thresholds,
) (classification.Outcome, error) {
	if m.classifyFn == nil {
		return classification.Classify(set, th)
	}
	return m.classifyFn(ctx, set, th)
}

func (m *mockClassifyUC) SelectBest(hits []hit.Hit, th classification.Thresholds) (hit.Scored, bool, error) {
	if m.selectBestFn == nil {
		return classification.SelectBest(hits, th)
	}
	return m.selectBestFn(hits, th)
}

// --- evaluateUseCase mock ---

type mockEvaluateUC struct {
	evaluateFn func(ctx context.Context, params evaluation.Params, pred, truth map[string]string) (*evaluation.Run, error)
}

func (m *mockEvaluateUC) Evaluate(
	ctx context.Context, params evaluation.Params, pred, truth map[string]string,
) (*evaluation.Run, error) {
	return m.evaluateFn(ctx, params, pred, truth)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

func newTestClient(cls classifyUseCase, ev evaluateUseCase, h healthUseCase) *Client {
	return &Client{
		cfg:         defaultClientConfig(),
		classifySvc: cls,
		evalSvc:     ev,
		healthSvc:   h,
	}
}
