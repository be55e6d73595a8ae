package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_FirstMatch(t *testing.T) {
	e := NewEvaluator()
	table := []Rule{
		{Name: "category_list", Predicate: "hasJongnyu"},
		{Name: "trend", Predicate: "hasTrendToken"},
		{Name: "metric_single", Predicate: "true"},
	}

	name, err := e.FirstMatch(table, map[string]any{
		"hasJongnyu":    false,
		"hasTrendToken": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "trend", name)

	name, err = e.FirstMatch(table, map[string]any{
		"hasJongnyu":    true,
		"hasTrendToken": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "category_list", name)
}

func TestEvaluator_MissingVariableDegradesFalse(t *testing.T) {
	e := NewEvaluator()
	ok, err := e.Eval("undefinedFlag", map[string]any{"other": true})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_CachesCompiledProgram(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Eval("a && b", map[string]any{"a": true, "b": true})
	require.NoError(t, err)
	assert.Len(t, e.cache, 1)

	ok, err := e.Eval("a && b", map[string]any{"a": true, "b": false})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, e.cache, 1)
}
