package tokencount_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/ai/tokencount"
)

func TestCountTokens(t *testing.T) {
	c := tokencount.NewCounter()

	assert.Zero(t, c.CountTokens("", "openai/gpt-4o-mini"))

	n := c.CountTokens("Senior backend engineer with Go and Kubernetes experience.", "openai/gpt-4o-mini")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 30)
}

func TestCountTokens_UnknownModelStillCounts(t *testing.T) {
	c := tokencount.NewCounter()
	n := c.CountTokens("hello world", "some-provider/mystery-model:free")
	assert.Greater(t, n, 0)
}

func TestTruncate(t *testing.T) {
	c := tokencount.NewCounter()

	short := "hello"
	assert.Equal(t, short, c.Truncate(short, "gpt-4", 100))
	assert.Equal(t, "", c.Truncate(short, "gpt-4", 0))

	long := strings.Repeat("candidate experience ", 500)
	cut := c.Truncate(long, "gpt-4", 50)
	assert.Less(t, len(cut), len(long))
	assert.LessOrEqual(t, c.CountTokens(cut, "gpt-4"), 50)
}
