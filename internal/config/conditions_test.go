package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionSatisfied(t *testing.T) {
	t.Parallel()

	values := map[string]interface{}{
		"enabled":  true,
		"replicas": 3,
		"name":     "gafaelfawr",
		"tags":     []interface{}{"a"},
		"empty":    "",
		"config": map[string]interface{}{
			"updateSchema": true,
			"cloudsql": map[string]interface{}{
				"enabled": false,
			},
		},
	}

	cache := newConditionCache()

	tests := []struct {
		name      string
		condition string
		want      bool
	}{
		{"empty condition", "", true},
		{"boolean variable", "enabled", true},
		{"nested lookup", "config.updateSchema", true},
		{"nested false", "config.cloudsql.enabled", false},
		{"comparison", "replicas > 1", true},
		{"string truthy", "name", true},
		{"empty string", "empty", false},
		{"list truthy", "tags", true},
		{"missing variable", "doesNotExist", false},
		{"missing nested key", "config.missing", false},
		{"boolean logic", "enabled && replicas == 3", true},
		{"negation", "!config.cloudsql.enabled", true},
		{"syntax error", "enabled &&", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cache.Satisfied(tt.condition, values))
		})
	}
}

func TestConditionCacheReuse(t *testing.T) {
	t.Parallel()

	cache := newConditionCache()
	values := map[string]interface{}{"enabled": true}

	assert.True(t, cache.Satisfied("enabled", values))
	assert.True(t, cache.Satisfied("enabled", values))

	cache.mu.RLock()
	defer cache.mu.RUnlock()
	assert.Len(t, cache.programs, 1)
}

func TestConditionAgainstEmptyValues(t *testing.T) {
	t.Parallel()

	cache := newConditionCache()

	assert.True(t, cache.Satisfied("", map[string]interface{}{}))
	assert.False(t, cache.Satisfied("anything", map[string]interface{}{}))
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"nil", nil, false},
		{"true", true, true},
		{"false", false, false},
		{"non-empty string", "x", true},
		{"empty string", "", false},
		{"non-zero int", 2, true},
		{"zero int", 0, false},
		{"zero int64", int64(0), false},
		{"non-zero float", 1.5, true},
		{"zero float", 0.0, false},
		{"non-empty slice", []interface{}{1}, true},
		{"empty slice", []interface{}{}, false},
		{"non-empty map", map[string]interface{}{"a": 1}, true},
		{"empty map", map[string]interface{}{}, false},
		{"other type", struct{}{}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truthy(tt.value))
		})
	}
}
