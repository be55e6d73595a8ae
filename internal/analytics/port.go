// Package analytics defines the external analytics backend port: the
// logical request/response shape the Plan Executor depends on.
package analytics

import "context"

type DateWindow struct {
	Start string
	End   string
}

type DimensionFilter struct {
	Dimension string
	Values    []string
}

type ReportRequest struct {
	PropertyID      string
	Dimensions      []string
	Metrics         []string
	DateRanges      []DateWindow
	DimensionFilter *DimensionFilter
	OrderBys        []OrderBy
	Limit           int
}

type OrderBy struct {
	Metric    string
	Dimension string
	Desc      bool
}

type ReportRow struct {
	DimensionValues []string
	MetricValues    []string
}

type ReportResponse struct {
	DimensionHeaders []string
	MetricHeaders    []string
	Rows             []ReportRow
}

type Metadata struct {
	Dimensions []string
	Metrics    []string
}

// Port is the abstracted analytics backend. Metric/dimension api_names
// may carry a customEvent:/customUser:/customItem: prefix; RunReport
// receives names exactly as the plan block holds them.
type Port interface {
	RunReport(ctx context.Context, req ReportRequest) (ReportResponse, error)
	GetMetadata(ctx context.Context, propertyID string) (Metadata, error)
}

// CustomPrefixes lists the custom-definition prefixes in resolution
// order. Neither the Planner nor the Executor consults it or
// GetMetadata: a name that does not resolve against live property
// metadata is not retried with these prefixes.
var CustomPrefixes = []string{"customEvent:", "customUser:", "customItem:"}
