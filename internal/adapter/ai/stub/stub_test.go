package stub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/ai/stub"
	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
	"github.com/fairyhunter13/cv-ranking-engine/internal/verify"
)

func TestStub_ExtractCandidate(t *testing.T) {
	text := "Backend engineer\n6 years building services in Go and Python with Docker and Redis."
	out, err := stub.New().ExtractCandidate(context.Background(), text, "", domain.ContactInfo{Email: "x@y.z"})
	require.NoError(t, err)

	raw, err := verify.ParseRaw(out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "python"}, raw.Skills)
	assert.ElementsMatch(t, []string{"docker", "redis"}, raw.Tools)
	assert.Equal(t, float64(6), raw.ExperienceYears)
	assert.Equal(t, "x@y.z", raw.Email)
	assert.Equal(t, "Backend engineer", raw.Summary)
}

func TestStub_Deterministic(t *testing.T) {
	text := "Uses Kubernetes daily."
	a, err := stub.New().ExtractCandidate(context.Background(), text, "", domain.ContactInfo{})
	require.NoError(t, err)
	b, err := stub.New().ExtractCandidate(context.Background(), text, "", domain.ContactInfo{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
