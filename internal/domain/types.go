// Package domain holds the data model shared across the question-to-query
// pipeline: candidates, plans, blocks, conversation state, and results.
package domain

// Value is a tagged sum over the scalar shapes a table cell or metric
// result can take. Exactly one field is meaningful; IsNull reports the
// absence of a value (e.g. a dropped "(not set)" bucket).
type Value struct {
	Str    string
	Num    float64
	Bool   bool
	IsNum  bool
	IsBool bool
	IsNull bool
}

func StrValue(s string) Value  { return Value{Str: s} }
func NumValue(f float64) Value { return Value{Num: f, IsNum: true} }
func BoolValue(b bool) Value   { return Value{Bool: b, IsBool: true} }
func NullValue() Value         { return Value{IsNull: true} }

// Row is a single result or table record keyed by column/dimension/metric
// name. Used both for File Engine tables and BlockResult breakdown rows.
type Row map[string]Value

// Scope is the analytic grain a metric or dimension is valid at. Queries
// may only mix scope-compatible fields within one block.
type Scope string

const (
	ScopeEvent Scope = "event"
	ScopeItem  Scope = "item"
	ScopeUser  Scope = "user"
)

// Category classifies a registry entry for display/grouping purposes.
type Category string

const (
	CategoryTime      Category = "time"
	CategoryEvent     Category = "event"
	CategoryPage      Category = "page"
	CategoryDevice    Category = "device"
	CategoryGeo       Category = "geo"
	CategoryTraffic   Category = "traffic"
	CategoryUser      Category = "user"
	CategoryAds       Category = "ads"
	CategoryEcommerce Category = "ecommerce"
)

// FieldDef is the shared shape behind MetricDef and DimensionDef: an
// immutable registry entry identified by a globally unique key.
type FieldDef struct {
	Key         string
	UIName      string
	Aliases     []string
	KRSemantics []string
	Category    Category
	Scope       Scope
	Priority    int
	Concept     string
}

type MetricDef = FieldDef
type DimensionDef = FieldDef

// MatchedBy records how a Candidate was produced.
type MatchedBy string

const (
	MatchedExplicit     MatchedBy = "explicit"
	MatchedAlias        MatchedBy = "alias"
	MatchedSemanticHigh MatchedBy = "semantic_high"
	MatchedSemanticMid  MatchedBy = "semantic_mid"
	MatchedSynthetic    MatchedBy = "synthetic"
	MatchedLLM          MatchedBy = "llm"
)

// Candidate is a scored metric or dimension match produced by the
// Candidate Extractor. Ordered by Score descending; ties broken by
// Priority then registry order.
type Candidate struct {
	Name         string
	Score        float64
	MatchedBy    MatchedBy
	Scope        Scope
	NeedsClarify bool
}

// Intent is the single classification a question receives.
type Intent string

const (
	IntentMetricSingle Intent = "metric_single"
	IntentMetricMulti  Intent = "metric_multi"
	IntentBreakdown    Intent = "breakdown"
	IntentTopN         Intent = "topn"
	IntentComparison   Intent = "comparison"
	IntentTrend        Intent = "trend"
	IntentCategoryList Intent = "category_list"
)

// DateRange is an inclusive ISO date window. Either both dates are set or
// neither is.
type DateRange struct {
	StartDate       string
	EndDate         string
	IsRelativeShift bool
}

func (d DateRange) IsZero() bool { return d.StartDate == "" && d.EndDate == "" }

// Modifiers captures operator-style requests detected in a question.
type Modifiers struct {
	NeedsTotal      bool
	NeedsBreakdown  bool
	ExcludeNotset   bool
	ScopeHint       Scope
	EntityContains  []string
	Limit           int
	OrderDesc       bool
}

// EntityMemory is the supplemented "그 " follow-up entity recall: the last
// dimension/value pair a conversation resolved, reapplied as a filter when
// a later question refers to it with a bare pronoun.
type EntityMemory struct {
	Dimension string
	Value     string
}

// BlockType enumerates the shape of a PlanBlock's query.
type BlockType string

const (
	BlockTotal         BlockType = "total"
	BlockBreakdown     BlockType = "breakdown"
	BlockBreakdownTopN BlockType = "breakdown_topn"
	BlockTrend         BlockType = "trend"
)

// OrderBy sorts either a metric or a dimension column.
type OrderBy struct {
	Metric    string
	Dimension string
	Desc      bool
}

// Filters is the set of server-side filters a block may carry. EventFilter
// and EventFilters are mutually exclusive per §4.F Step 6.
type Filters struct {
	EventFilter      string
	EventFilters     []string
	DimensionFilters map[string]string
}

// PlanBlock is one analytics request: metrics/dimensions/filters/ordering
// at a single scope.
type PlanBlock struct {
	BlockID    string
	BlockType  BlockType
	Scope      Scope
	Metrics    []string
	Dimensions []string
	Filters    Filters
	OrderBys   []OrderBy
	Limit      int
	Title      string
}

// ExecutionPlan is the Planner's deterministic output. Owned by the
// Planner and read-only downstream.
type ExecutionPlan struct {
	PropertyID string
	StartDate  string
	EndDate    string
	Intent     Intent
	Blocks     []PlanBlock
}

// ConversationState is the "last state" persisted per conversation on
// every successful turn. Never partially written.
type ConversationState struct {
	Metrics      []string
	Dimensions   []string
	StartDate    string
	EndDate      string
	Intent       Intent
	ScopeType    Scope
	LastEntity   *EntityMemory
	EventFilter  string
	Periods      int
}

func (s *ConversationState) HasDates() bool {
	return s != nil && s.StartDate != "" && s.EndDate != ""
}

// BlockResult is the normalized outcome of executing one PlanBlock. Data
// is either a single metric->value map (total) or an ordered list of row
// maps (breakdown/trend).
type BlockResult struct {
	BlockID string
	Title   string
	Type    BlockType
	Total   map[string]Value
	Rows    []Row
}

// ChartSpec is the single chart describing a response, or an empty spec
// when no chart applies.
type ChartSpec struct {
	Type   string
	Labels []string
	Series []ChartSeries
}

type ChartSeries struct {
	Name string
	Data []float64
}

// ResponseStatus is the top-level outcome of a turn.
type ResponseStatus string

const (
	StatusOK           ResponseStatus = "ok"
	StatusClarify      ResponseStatus = "clarify"
	StatusError        ResponseStatus = "error"
	StatusPartialError ResponseStatus = "partial_error"
)

// Response is the envelope returned to the caller for one turn.
type Response struct {
	Status              ResponseStatus
	Message             string
	Account             string
	Period              string
	Blocks              []BlockResult
	PlotData            ChartSpec
	RawData             []Row
	Structured          map[string]string
	FollowupSuggestions []string
	MatchingDebug       any
}

// Relation is the Relation Classifier's output enum.
type Relation string

const (
	RelationRefine          Relation = "refine"
	RelationNewTopic        Relation = "new_topic"
	RelationMetricSwitch    Relation = "metric_switch"
	RelationDimensionSwitch Relation = "dimension_switch"
)

// ExtractionResult is the Candidate Extractor's full output for one turn.
type ExtractionResult struct {
	Intent             Intent
	MetricCandidates   []Candidate
	DimensionCandidates []Candidate
	DateRange          DateRange
	Modifiers          Modifiers
	EntityTerms        []string
	MatchingDebug      map[string]any
}
