package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorDetail_Error(t *testing.T) {
	tests := []struct {
		name   string
		detail *ErrorDetail
		want   string
	}{
		{"nil", nil, ""},
		{"internal type is hidden", NewErrorDetail("internal", "no runnable registered"), "no runnable registered"},
		{"typed", NewErrorDetail("capability", "capability not enabled: db"), "capability: capability not enabled: db"},
		{"code", NewErrorDetail("panic", "boom").WithCode("cache_get"), "panic: boom [cache_get]"},
		{"sentinel", &ErrorDetail{Type: "host_invocation", Message: "failed", Sentinel: -7}, "host_invocation: failed (sentinel -7)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.Error())
		})
	}
}

func TestOperation(t *testing.T) {
	for _, op := range Operations() {
		assert.True(t, op.Valid(), op)
	}
	assert.False(t, Operation("add_var").Valid(), "registration is not an operation")
	assert.False(t, OpCacheSet.ProducesResult())
	assert.True(t, OpDBSelect.ProducesResult())
	assert.False(t, Operation("fetch_result").ProducesResult())
	assert.True(t, OpGetStaticFile.ProducesResult())
}

func TestQueryType(t *testing.T) {
	for _, s := range []string{"insert", "select"} {
		qt, err := ParseQueryType(s)
		require.NoError(t, err)
		assert.Equal(t, s, qt.String())

		op, ok := qt.Operation()
		require.True(t, ok)
		assert.Equal(t, "db_"+s, string(op))

		back, ok := op.QueryType()
		require.True(t, ok)
		assert.Equal(t, qt, back)
	}

	_, ok := OpCacheGet.QueryType()
	assert.False(t, ok)

	_, err := ParseQueryType("update")
	assert.Error(t, err)

	_, ok = QueryType(2).Operation()
	assert.False(t, ok)
	assert.Equal(t, "query_type(2)", QueryType(2).String())
}
