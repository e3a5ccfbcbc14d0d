package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsOrderAndReplacesByName(t *testing.T) {
	var ran []string
	job := func(name string) Job {
		return JobFunc(name, func(context.Context) error {
			ran = append(ran, name)
			return nil
		})
	}
	replacement := JobFunc("retention", func(context.Context) error { return errors.New("replaced") })

	registry := NewRegistry(job("retention"), job("parked"), nil)
	registry.Register(replacement)

	assert.Equal(t, []string{"retention", "parked"}, registry.Names())
	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.EqualError(t, jobs[0].Run(context.Background()), "replaced")
	require.NoError(t, jobs[1].Run(context.Background()))
	assert.Equal(t, []string{"parked"}, ran)
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(JobFunc("a", func(context.Context) error { return nil }))
	jobs := registry.Jobs()
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}
