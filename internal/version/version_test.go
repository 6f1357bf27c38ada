package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	assert.Equal(t, Version, Info())
	full := FullInfo()
	assert.True(t, strings.HasPrefix(full, "textsearch "+Version))
	assert.Contains(t, full, "commit: "+Commit())
	assert.NotEmpty(t, Commit())
}
