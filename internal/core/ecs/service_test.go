package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/shell/internal/core/ecs"
)

var clockID = ecs.MustServiceID("6f1c2a4e-93b0-4c1d-8e55-0a7d3f2b9c11")

type clock struct{ now int }

type owner struct {
	*ecs.Services
	values map[string]any
}

func (o owner) Lookup(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func TestServiceIDRoundTrip(t *testing.T) {
	require.Equal(t, "6f1c2a4e-93b0-4c1d-8e55-0a7d3f2b9c11", clockID.String())

	braced, err := ecs.ParseServiceID("{6F1C2A4E-93B0-4C1D-8E55-0A7D3F2B9C11}")
	require.NoError(t, err)
	require.Equal(t, clockID, braced)

	compact, err := ecs.ParseServiceID("6f1c2a4e93b04c1d8e550a7d3f2b9c11")
	require.NoError(t, err)
	require.Equal(t, clockID, compact)

	_, err = ecs.ParseServiceID("6f1c2a4e-93b0-4c1d-8e55")
	require.Error(t, err)
	_, err = ecs.ParseServiceID("zz1c2a4e-93b0-4c1d-8e55-0a7d3f2b9c11")
	require.Error(t, err)
	require.Panics(t, func() { ecs.MustServiceID("nope") })
}

func TestResolve(t *testing.T) {
	d := ecs.NewDomain()
	_, err := ecs.Resolve[*clock](d, clockID)
	require.ErrorIs(t, err, ecs.ErrNoServiceProvider)

	svc := ecs.NewServices()
	d = ecs.NewDomain(ecs.WithServices(svc))
	_, err = ecs.Resolve[*clock](d, clockID)
	require.ErrorIs(t, err, ecs.ErrServiceNotFound)

	c := &clock{now: 7}
	svc.Set(clockID, c)
	got, err := ecs.Resolve[*clock](d, clockID)
	require.NoError(t, err)
	require.Same(t, c, got)

	_, err = ecs.Resolve[string](d, clockID)
	require.ErrorIs(t, err, ecs.ErrServiceType)

	svc.Delete(clockID)
	_, err = ecs.Resolve[*clock](d, clockID)
	require.ErrorIs(t, err, ecs.ErrServiceNotFound)
}

func TestOwnerDoublesAsProvider(t *testing.T) {
	o := owner{Services: ecs.NewServices(), values: map[string]any{"title": "shell"}}
	o.Set(clockID, &clock{})
	d := ecs.NewDomain(ecs.WithOwner(o))

	v, ok := d.Owner().Lookup("title")
	require.True(t, ok)
	require.Equal(t, "shell", v)
	_, err := ecs.Resolve[*clock](d, clockID)
	require.NoError(t, err)
}
