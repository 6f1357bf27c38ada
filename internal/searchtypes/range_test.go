package searchtypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeSet_JSONShape(t *testing.T) {
	single, err := json.Marshal(SingleRange(OneLineRange(1, 2, 3)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"startLineNumber":1,"startColumn":2,"endLineNumber":1,"endColumn":3}`, string(single))

	list, err := json.Marshal(RangeList(OneLineRange(1, 2, 3)))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"startLineNumber":1,"startColumn":2,"endLineNumber":1,"endColumn":3}]`, string(list))

	empty, err := json.Marshal(RangeSet{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	var s RangeSet
	require.NoError(t, json.Unmarshal(single, &s))
	assert.True(t, s.Single)
	require.NoError(t, json.Unmarshal(list, &s))
	assert.False(t, s.Single)
	assert.Equal(t, 1, s.Len())

	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func TestRangeSet_AllSingleLine(t *testing.T) {
	assert.True(t, RangeList(OneLineRange(4, 0, 1), OneLineRange(4, 5, 9)).AllSingleLine())
	assert.False(t, RangeList(OneLineRange(4, 0, 1), OneLineRange(5, 0, 1)).AllSingleLine())
	assert.False(t, SingleRange(NewRange(4, 0, 5, 1)).AllSingleLine())
}

func TestRangeSet_Truncate(t *testing.T) {
	s := RangeList(OneLineRange(0, 0, 1), OneLineRange(0, 2, 3))
	assert.Equal(t, 2, s.Truncate(10).Len())
	assert.Equal(t, 0, s.Truncate(-1).Len())

	first, ok := s.Truncate(1).First()
	require.True(t, ok)
	assert.Equal(t, OneLineRange(0, 0, 1), first)

	_, ok = RangeList().First()
	assert.False(t, ok)
}
