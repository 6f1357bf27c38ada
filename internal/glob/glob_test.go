package glob

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
)

func TestClause_JSON(t *testing.T) {
	var expr Expression
	require.NoError(t, json.Unmarshal([]byte(`{"**/*.go": true, "vendor": false, "**/*.js": {"when": "$(basename).ts"}}`), &expr))

	assert.Equal(t, Bool(true), expr["**/*.go"])
	assert.Equal(t, Bool(false), expr["vendor"])
	assert.Equal(t, Sibling("$(basename).ts"), expr["**/*.js"])

	data, err := json.Marshal(expr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"**/*.go": true, "vendor": false, "**/*.js": {"when": "$(basename).ts"}}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"a": "yes"}`), &expr))
	assert.Error(t, json.Unmarshal([]byte(`{"a": {"when": ""}}`), &expr))
}

func TestMerge(t *testing.T) {
	assert.Nil(t, Merge(nil, nil))

	merged := Merge(Expression{"a": Bool(true), "b": Bool(true)}, Expression{"b": Bool(false), "c": Sibling("x")})
	assert.Equal(t, Expression{"a": Bool(true), "b": Bool(false), "c": Sibling("x")}, merged)

	empty := Merge(Expression{}, nil)
	assert.NotNil(t, empty, "an empty expression stays distinct from no expression")
	assert.Len(t, empty, 0)
}

func TestHasSiblingClauses(t *testing.T) {
	assert.False(t, HasSiblingClauses(nil))
	assert.False(t, HasSiblingClauses(Expression{"a": Bool(true), "b": Bool(false)}))
	assert.True(t, HasSiblingClauses(Expression{"a": Bool(true), "b": Sibling("$(basename).ts")}))
}

func TestResolvePatternsForProvider(t *testing.T) {
	global := Expression{"**/node_modules": Bool(true), "**/*.log": Bool(true), "**/*.js": Sibling("$(basename).ts")}
	folder := Expression{"**/*.log": Bool(false), "dist/**": Bool(true)}

	assert.Equal(t, []string{"**/node_modules", "dist/**"}, ResolvePatternsForProvider(global, folder))
	assert.Empty(t, ResolvePatternsForProvider(nil, nil))
}

func TestParse_PlainPatterns(t *testing.T) {
	parsed, err := Parse(Expression{"**/node_modules": Bool(true), "*.md": Bool(true), "src/gen/**": Bool(false)})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/x/index.js", true},
		{"pkg/node_modules/y.js", true},
		{"README.md", true},
		{"docs/README.md", false},
		{"src/gen/out.go", false},
		{"src/main.go", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsed(tt.path, "", nil), tt.path)
	}
}

func TestParse_SiblingClause(t *testing.T) {
	parsed, err := Parse(Expression{"**/*.js": Sibling("$(basename).ts")})
	require.NoError(t, err)

	var asked []string
	hasSibling := func(name string) bool {
		asked = append(asked, name)
		return name == "app.ts"
	}

	assert.True(t, parsed("src/app.js", "app.js", hasSibling))
	assert.False(t, parsed("src/util.js", "util.js", hasSibling))
	assert.False(t, parsed("src/style.css", "style.css", hasSibling))
	assert.Equal(t, []string{"app.ts", "util.ts"}, asked, "non-matching paths never ask for siblings")

	assert.False(t, parsed("src/app.js", "app.js", nil), "sibling clauses are ignored without a sibling check")
}

func TestParse_InvalidPattern(t *testing.T) {
	_, err := Parse(Expression{"[unclosed": Bool(true)})
	require.Error(t, err)

	var searchErr *tserrors.SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, tserrors.CodeGlobParseError, searchErr.Code)
	assert.Equal(t, "[unclosed", searchErr.Pattern)
}

func TestSiblingName(t *testing.T) {
	assert.Equal(t, "app.ts", SiblingName("$(basename).ts", "app.js"))
	assert.Equal(t, "app.test.d.ts", SiblingName("$(basename).d.ts", "app.test.js"))
	assert.Equal(t, "Makefile.bak", SiblingName("$(basename).bak", "Makefile"))
	assert.Equal(t, "x-$(basename)", SiblingName("$(basename)-$(basename)", "x.go"))
}
