package fileengine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nugget/internal/llm"
)

func sampleTable() *Table {
	t, err := LoadCSV(strings.NewReader(
		"user_id,category,amount,signup_date\n" +
			"u1,A,100,2026-01-01\n" +
			"u2,B,200,2026-01-02\n" +
			"u3,A,150,2026-01-03\n",
	))
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoadCSV_ParsesHeaderAndRows(t *testing.T) {
	table := sampleTable()
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "100", table.Rows[0]["amount"])
}

func TestProfileColumns_InfersKinds(t *testing.T) {
	table := sampleTable()
	profile := table.ProfileColumns()
	assert.Equal(t, KindNumeric, profile["amount"])
	assert.Equal(t, KindCategorical, profile["category"])
	assert.Equal(t, KindDate, profile["signup_date"])
}

func TestDetectIntent_GroupByKeyword(t *testing.T) {
	intent := DetectIntent("카테고리별 금액 합계 알려줘", nil)
	assert.Equal(t, IntentGroupBy, intent.Type)
}

func TestDetectIntent_FollowupReplaysLastIntent(t *testing.T) {
	last := &Intent{Type: IntentGroupBy}
	intent := DetectIntent("응 보여줘", last)
	assert.Equal(t, IntentGroupBy, intent.Type)
	assert.True(t, intent.IsFollowup)
}

func TestEngine_GroupByAggregatesPerCategory(t *testing.T) {
	table := sampleTable()
	e := New(llm.NewFakePort(), 500)
	result, intent := e.Process(context.Background(), "카테고리별 amount 합계", table, nil)
	assert.Equal(t, IntentGroupBy, intent.Type)
	assert.Contains(t, result.Message, "category")
}

func TestEngine_CountUsersFindsUserIDColumn(t *testing.T) {
	table := sampleTable()
	e := New(llm.NewFakePort(), 500)
	result, _ := e.Process(context.Background(), "사용자가 몇 명이야", table, nil)
	assert.Contains(t, result.Message, "3명")
}

func TestEngine_InsightFallsBackToLLM(t *testing.T) {
	table := sampleTable()
	fake := llm.NewFakePort()
	fake.InsightMessage = "요약 결과입니다."
	e := New(fake, 500)
	result, intent := e.Process(context.Background(), "이 데이터 어떻게 생각해?", table, nil)
	assert.Equal(t, IntentInsight, intent.Type)
	assert.Equal(t, "요약 결과입니다.", result.Message)
}
