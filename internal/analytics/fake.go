package analytics

import (
	"context"
	"fmt"
)

// FakePort returns deterministic fixture rows keyed by the requested
// metrics/dimensions, so the pipeline is testable without live credentials.
type FakePort struct {
	// Err, when set, is returned by every RunReport call instead of
	// the synthetic rows.
	Err error
}

func NewFakePort() *FakePort { return &FakePort{} }

func (f *FakePort) RunReport(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	if f.Err != nil {
		return ReportResponse{}, f.Err
	}

	resp := ReportResponse{
		DimensionHeaders: req.Dimensions,
		MetricHeaders:    req.Metrics,
	}

	if len(req.Dimensions) == 0 {
		row := ReportRow{}
		for i := range req.Metrics {
			row.MetricValues = append(row.MetricValues, fmt.Sprintf("%d", 1000*(i+1)))
		}
		resp.Rows = []ReportRow{row}
		return resp, nil
	}

	limit := req.Limit
	if limit == 0 || limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		row := ReportRow{}
		for _, d := range req.Dimensions {
			row.DimensionValues = append(row.DimensionValues, fmt.Sprintf("%s-%d", d, i+1))
		}
		for j := range req.Metrics {
			row.MetricValues = append(row.MetricValues, fmt.Sprintf("%d", (i+1)*100*(j+1)))
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

func (f *FakePort) GetMetadata(ctx context.Context, propertyID string) (Metadata, error) {
	return Metadata{}, nil
}
