package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	reg := NewRegistry(namedJob("expire"), nil, namedJob("retention"))

	jobs := reg.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "expire", jobs[0].Name())
	assert.Equal(t, "retention", jobs[1].Name())

	jobs[0] = nil
	assert.NotNil(t, reg.Jobs()[0])

	job, ok := reg.Lookup("retention")
	assert.True(t, ok)
	assert.Equal(t, namedJob("retention"), job)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicatesAndBlankNames(t *testing.T) {
	reg := NewRegistry(namedJob("expire"))

	assert.ErrorContains(t, reg.Register(namedJob("expire")), "registered twice")
	assert.ErrorContains(t, reg.Register(namedJob("  ")), "empty name")
	assert.Equal(t, 1, reg.Len())
	assert.Panics(t, func() { NewRegistry(namedJob("a"), namedJob("a")) })
}
