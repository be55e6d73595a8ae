package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"nugget/internal/domain"
)

// ConversationStateModel is the persisted row for the last resolved
// state of a conversation, keyed by conversation_id. One row per
// conversation: every SaveLastState overwrites it, never appends.
type ConversationStateModel struct {
	bun.BaseModel `bun:"table:conversation_states,alias:cs"`

	ConversationID string    `bun:"conversation_id,pk"`
	Metrics        []string  `bun:"metrics,type:jsonb"`
	Dimensions     []string  `bun:"dimensions,type:jsonb"`
	StartDate      string    `bun:"start_date"`
	EndDate        string    `bun:"end_date"`
	Intent         string    `bun:"intent"`
	ScopeType      string    `bun:"scope_type"`
	EventFilter    string    `bun:"event_filter"`
	Periods        int       `bun:"periods"`
	UpdatedAt      time.Time `bun:"updated_at"`
}

// ConversationContextModel holds the "그 " entity-recall memory,
// addressed by conversation_id. The last result blocks are kept
// separately in LastResultModel.
type ConversationContextModel struct {
	bun.BaseModel `bun:"table:conversation_contexts,alias:cc"`

	ConversationID string    `bun:"conversation_id,pk"`
	Dimension      string    `bun:"dimension"`
	Value          string    `bun:"value"`
	UpdatedAt      time.Time `bun:"updated_at"`
}

type LastResultModel struct {
	bun.BaseModel `bun:"table:last_results,alias:lr"`

	ConversationID string    `bun:"conversation_id,pk"`
	Blocks         []byte    `bun:"blocks,type:jsonb"`
	UpdatedAt      time.Time `bun:"updated_at"`
}

// PropertyEventModel is the append-only interaction log used for
// offline quality review (supplemented per the regression-logging
// feature, never read back on the decision path).
type PropertyEventModel struct {
	bun.BaseModel `bun:"table:conversation_events,alias:ce"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ConversationID string    `bun:"conversation_id"`
	Question       string    `bun:"question"`
	Intent         string    `bun:"intent"`
	Source         string    `bun:"source"`
	Status         string    `bun:"status"`
	Timestamp      time.Time `bun:"timestamp"`
}

// BunStore is the Postgres-backed Store. Writes for one conversation
// are serialized through a per-conversation in-process mutex, since
// Postgres alone won't prevent two goroutines from racing a
// read-modify-write of the same conversation's state.
type BunStore struct {
	db *bun.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db, locks: make(map[string]*sync.Mutex)}
}

func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*ConversationStateModel)(nil),
		(*ConversationContextModel)(nil),
		(*LastResultModel)(nil),
		(*PropertyEventModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *BunStore) lockFor(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[conversationID] = l
	}
	return l
}

func (s *BunStore) LoadLastState(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	model := new(ConversationStateModel)
	err := s.db.NewSelect().Model(model).Where("conversation_id = ?", conversationID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &domain.ConversationState{
		Metrics:     model.Metrics,
		Dimensions:  model.Dimensions,
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		Intent:      domain.Intent(model.Intent),
		ScopeType:   domain.Scope(model.ScopeType),
		EventFilter: model.EventFilter,
		Periods:     model.Periods,
	}, nil
}

func (s *BunStore) SaveLastState(ctx context.Context, conversationID string, state *domain.ConversationState) error {
	l := s.lockFor(conversationID)
	l.Lock()
	defer l.Unlock()

	model := &ConversationStateModel{
		ConversationID: conversationID,
		UpdatedAt:      time.Now(),
	}
	if state != nil {
		model.Metrics = state.Metrics
		model.Dimensions = state.Dimensions
		model.StartDate = state.StartDate
		model.EndDate = state.EndDate
		model.Intent = string(state.Intent)
		model.ScopeType = string(state.ScopeType)
		model.EventFilter = state.EventFilter
		model.Periods = state.Periods
	}
	_, err := s.db.NewInsert().Model(model).
		On("CONFLICT (conversation_id) DO UPDATE").
		Exec(ctx)
	return err
}

func (s *BunStore) LoadLastResult(ctx context.Context, conversationID string) ([]domain.BlockResult, error) {
	model := new(LastResultModel)
	err := s.db.NewSelect().Model(model).Where("conversation_id = ?", conversationID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var blocks []domain.BlockResult
	if err := json.Unmarshal(model.Blocks, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *BunStore) SaveLastResult(ctx context.Context, conversationID string, blocks []domain.BlockResult) error {
	l := s.lockFor(conversationID)
	l.Lock()
	defer l.Unlock()

	payload, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	model := &LastResultModel{ConversationID: conversationID, Blocks: payload, UpdatedAt: time.Now()}
	_, err = s.db.NewInsert().Model(model).
		On("CONFLICT (conversation_id) DO UPDATE").
		Exec(ctx)
	return err
}

func (s *BunStore) LoadConversationContext(ctx context.Context, conversationID string) (*domain.EntityMemory, error) {
	model := new(ConversationContextModel)
	err := s.db.NewSelect().Model(model).Where("conversation_id = ?", conversationID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if model.Dimension == "" {
		return nil, nil
	}
	return &domain.EntityMemory{Dimension: model.Dimension, Value: model.Value}, nil
}

func (s *BunStore) SaveConversationContext(ctx context.Context, conversationID string, mem *domain.EntityMemory) error {
	l := s.lockFor(conversationID)
	l.Lock()
	defer l.Unlock()

	model := &ConversationContextModel{ConversationID: conversationID, UpdatedAt: time.Now()}
	if mem != nil {
		model.Dimension = mem.Dimension
		model.Value = mem.Value
	}
	_, err := s.db.NewInsert().Model(model).
		On("CONFLICT (conversation_id) DO UPDATE").
		Exec(ctx)
	return err
}

func (s *BunStore) GetEvents(ctx context.Context, conversationID string, limit int) ([]InteractionEvent, error) {
	var models []PropertyEventModel
	q := s.db.NewSelect().Model(&models).
		Where("conversation_id = ?", conversationID).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]InteractionEvent, len(models))
	for i, m := range models {
		out[i] = InteractionEvent{
			ConversationID: m.ConversationID,
			Question:       m.Question,
			Intent:         domain.Intent(m.Intent),
			Source:         m.Source,
			Status:         domain.ResponseStatus(m.Status),
			Timestamp:      m.Timestamp,
		}
	}
	return out, nil
}

func (s *BunStore) SaveEvent(ctx context.Context, ev InteractionEvent) error {
	l := s.lockFor(ev.ConversationID)
	l.Lock()
	defer l.Unlock()

	model := &PropertyEventModel{
		ConversationID: ev.ConversationID,
		Question:       ev.Question,
		Intent:         string(ev.Intent),
		Source:         ev.Source,
		Status:         string(ev.Status),
		Timestamp:      ev.Timestamp,
	}
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BunStore) Close() error {
	return s.db.Close()
}
