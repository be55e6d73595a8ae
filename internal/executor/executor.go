// Package executor runs an ExecutionPlan's blocks against the external
// analytics port and normalizes the results into BlockResults.
package executor

import (
	"context"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
	"nugget/internal/analytics"
	"nugget/internal/domain"
	pipelineerrors "nugget/internal/domain/errors"
)

type Executor struct {
	port analytics.Port
}

func New(port analytics.Port) *Executor {
	return &Executor{port: port}
}

// Result is the outcome of executing a full plan: the successful block
// results in Planner order, and the anchor block to persist as the next
// ConversationState.
type Result struct {
	Blocks       []domain.BlockResult
	AnchorBlock  *domain.PlanBlock
	FailedBlocks int
}

// Execute runs every block independently; a failing block is dropped and
// execution continues with the rest, per §4.G. The executor never
// retries at its own layer.
func (e *Executor) Execute(ctx context.Context, conversationID string, plan *domain.ExecutionPlan) (Result, error) {
	var out Result
	var anchorCandidate *domain.PlanBlock

	for i := range plan.Blocks {
		block := plan.Blocks[i]
		result, err := e.executeBlock(ctx, plan, block)
		if err != nil {
			log.Warn().Err(err).Str("block_id", block.BlockID).Msg("executor: block failed, dropping")
			out.FailedBlocks++
			continue
		}
		out.Blocks = append(out.Blocks, result)

		if block.BlockType == domain.BlockBreakdown || block.BlockType == domain.BlockBreakdownTopN || block.BlockType == domain.BlockTrend {
			if anchorCandidate == nil {
				b := block
				anchorCandidate = &b
			}
		}
	}

	if anchorCandidate == nil && len(plan.Blocks) > 0 {
		for i := range plan.Blocks {
			if plan.Blocks[i].BlockType == domain.BlockTotal {
				b := plan.Blocks[i]
				anchorCandidate = &b
				break
			}
		}
	}
	out.AnchorBlock = anchorCandidate

	if len(out.Blocks) == 0 && len(plan.Blocks) > 0 {
		return out, pipelineerrors.NewAnalyticsFailure("executor", conversationID, "every block failed", nil)
	}

	return out, nil
}

func (e *Executor) executeBlock(ctx context.Context, plan *domain.ExecutionPlan, block domain.PlanBlock) (domain.BlockResult, error) {
	req := analytics.ReportRequest{
		PropertyID: plan.PropertyID,
		Dimensions: block.Dimensions,
		Metrics:    block.Metrics,
		DateRanges: []analytics.DateWindow{{Start: plan.StartDate, End: plan.EndDate}},
		Limit:      block.Limit,
	}
	if block.Filters.EventFilter != "" {
		req.DimensionFilter = &analytics.DimensionFilter{Dimension: "eventName", Values: []string{block.Filters.EventFilter}}
	} else if len(block.Filters.EventFilters) > 0 {
		req.DimensionFilter = &analytics.DimensionFilter{Dimension: "eventName", Values: block.Filters.EventFilters}
	}
	for _, ob := range block.OrderBys {
		req.OrderBys = append(req.OrderBys, analytics.OrderBy{Metric: ob.Metric, Dimension: ob.Dimension, Desc: ob.Desc})
	}

	resp, err := e.port.RunReport(ctx, req)
	if err != nil {
		return domain.BlockResult{}, pipelineerrors.NewAnalyticsFailure("executor", "", "run_report failed", err)
	}

	return normalize(block, resp), nil
}

var numericStripRe = regexp.MustCompile(`[^0-9.\-]`)

// coerceNumeric lenient-parses a metric value, stripping non-numeric
// characters before calling strconv.ParseFloat.
func coerceNumeric(raw string) (float64, bool) {
	cleaned := numericStripRe.ReplaceAllString(raw, "")
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalize(block domain.PlanBlock, resp analytics.ReportResponse) domain.BlockResult {
	result := domain.BlockResult{BlockID: block.BlockID, Title: block.Title, Type: block.BlockType}

	if block.BlockType == domain.BlockTotal {
		total := map[string]domain.Value{}
		if len(resp.Rows) > 0 {
			row := resp.Rows[0]
			for i, key := range block.Metrics {
				if i < len(row.MetricValues) {
					if f, ok := coerceNumeric(row.MetricValues[i]); ok {
						total[key] = domain.NumValue(f)
						continue
					}
				}
				total[key] = domain.NullValue()
			}
		}
		result.Total = total
		return result
	}

	for _, row := range resp.Rows {
		r := domain.Row{}
		for i, dimKey := range block.Dimensions {
			if i < len(row.DimensionValues) {
				r[dimKey] = domain.StrValue(row.DimensionValues[i])
			}
		}
		for i, metricKey := range block.Metrics {
			if i < len(row.MetricValues) {
				if f, ok := coerceNumeric(row.MetricValues[i]); ok {
					r[metricKey] = domain.NumValue(f)
					continue
				}
			}
			r[metricKey] = domain.NullValue()
		}
		result.Rows = append(result.Rows, r)
	}
	return result
}
