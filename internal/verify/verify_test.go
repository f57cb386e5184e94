package verify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-ranking-engine/internal/verify"
)

const sampleCV = `
Jane Doe — Senior Backend Engineer.
8 years building services in Go and Python, deployed on Kubernetes.
Worked with PostgreSQL databases and Redis. Set up CI pipelines.
Fluent in English and Spanish. Holds a BSc in Computer Science.
Led the migration of a machine learning platform to AWS.
`

func TestItemsInText_ExactMatchesKept(t *testing.T) {
	t.Parallel()
	got := verify.ItemsInText(context.Background(), []string{"Go", "Python", "Kubernetes", "PostgreSQL"}, sampleCV)
	assert.Equal(t, []string{"Go", "Python", "Kubernetes", "PostgreSQL"}, got)
}

func TestItemsInText_HallucinationsDropped(t *testing.T) {
	t.Parallel()
	got := verify.ItemsInText(context.Background(), []string{"Quantum Cryptanalysis", "Rust", "COBOL"}, sampleCV)
	assert.Empty(t, got)
}

func TestItemsInText_TokenwiseRule(t *testing.T) {
	t.Parallel()
	// All tokens present individually even though the phrase is reordered.
	got := verify.ItemsInText(context.Background(), []string{"learning machine platform"}, sampleCV)
	assert.Equal(t, []string{"learning machine platform"}, got)
}

func TestItemsInText_TokenwiseRuleLengthGuard(t *testing.T) {
	t.Parallel()
	// "go ci" has both tokens... but tokens of length <= 2 are skipped, and
	// the item itself is too short for token-wise evidence.
	got := verify.ItemsInText(context.Background(), []string{"go ci"}, sampleCV)
	assert.Empty(t, got)
}

func TestItemsInText_PluralVariants(t *testing.T) {
	t.Parallel()
	// Text says "databases" and "CI pipelines"; singular claims still verify,
	// and a plural claim against singular text does too.
	got := verify.ItemsInText(context.Background(), []string{"database", "pipeline"}, sampleCV)
	assert.Equal(t, []string{"database", "pipeline"}, got)
}

func TestItemsInText_AccentAndCaseInsensitive(t *testing.T) {
	t.Parallel()
	got := verify.ItemsInText(context.Background(), []string{"KUBERNETES"}, "Déployé sur kubernetes.")
	assert.Equal(t, []string{"KUBERNETES"}, got)
}

func TestItemsInText_EmptyItemsSkipped(t *testing.T) {
	t.Parallel()
	got := verify.ItemsInText(context.Background(), []string{"", "   ", "Go"}, sampleCV)
	assert.Equal(t, []string{"Go"}, got)
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"wrapped in prose", "Sure! Here is the JSON:\n{\"a\":{\"b\":2}}\nHope that helps.", `{"a":{"b":2}}`, false},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"braces inside strings", `{"s":"{not a block}"}`, `{"s":"{not a block}"}`, false},
		{"no object", "no json here", "", true},
		{"unterminated", `{"a":1`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := verify.ExtractJSONObject(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRaw_Malformed(t *testing.T) {
	t.Parallel()
	_, err := verify.ParseRaw(`{"skills": "not-an-array"}`)
	require.Error(t, err)
}
