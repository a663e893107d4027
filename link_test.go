package disclosure_test

import (
	"context"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSymmetric(t *testing.T) {
	ab := disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
		disclosure.Required("member", "hcp-a"),
		disclosure.Required("organization", "hco-b"),
	}, disclosure.Text("Consultant"))
	ba := disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
		disclosure.Required("organization", "hco-b"),
		disclosure.Required("member", "hcp-a"),
	}, disclosure.Text("Consultant"))
	swapped := disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
		disclosure.Required("member", "hco-b"),
		disclosure.Required("organization", "hcp-a"),
	}, disclosure.Text("Consultant"))
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	require.NotNil(t, swapped)
	assert.Regexp(t, `^membership-[0-9a-f]{40}$`, ab.ID)

	// Whatever the order of endpoints and properties, the edge is the same
	// entity: ids sorted onto the properties in declaration order.
	for _, e := range []*disclosure.Entity{ba, swapped} {
		assert.Equal(t, ab.ID, e.ID)
		assert.True(t, ab.Equal(e), "%v != %v", ab.Properties, e.Properties)
	}
	assert.Equal(t, "hco-b", ab.First("member"))
	assert.Equal(t, "hcp-a", ab.First("organization"))
}

func TestLinkSymmetricMergeKeepsBothEndpoints(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewStore()
	ab := disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
		disclosure.Required("member", "person-a"),
		disclosure.Required("organization", "org-b"),
	})
	ba := disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
		disclosure.Required("member", "org-b"),
		disclosure.Required("organization", "person-a"),
	})
	require.NoError(t, store.Emit(ctx, ab))
	require.NoError(t, store.Emit(ctx, ba))
	require.Equal(t, 1, store.Len())

	merged, ok := store.Get(ab.ID)
	require.True(t, ok)
	assert.True(t, merged.Equal(ab))
	assert.ElementsMatch(t, []string{"org-b", "person-a"},
		append(merged.Get("member"), merged.Get("organization")...))
}

func TestLinkAsymmetric(t *testing.T) {
	ab := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", "org-a"),
		disclosure.Optional("beneficiary", "physician-b"),
	}, disclosure.Token("100"), disclosure.Token("2021"))
	ba := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", "physician-b"),
		disclosure.Optional("beneficiary", "org-a"),
	}, disclosure.Token("100"), disclosure.Token("2021"))
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.NotEqual(t, ab.ID, ba.ID)

	// Discriminants keep distinct edges between the same parties apart.
	other := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", "org-a"),
		disclosure.Optional("beneficiary", "physician-b"),
	}, disclosure.Token("100"), disclosure.Token("2022"))
	assert.NotEqual(t, ab.ID, other.ID)
}

func TestLinkUnresolved(t *testing.T) {
	assert.Nil(t, disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
		disclosure.Required("member", ""),
		disclosure.Required("organization", "hco-b"),
	}))

	// An optional endpoint may be missing; the edge keeps its position.
	p := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", "org-a"),
		disclosure.Optional("beneficiary", ""),
	}, disclosure.Token("rec-1"))
	require.NotNil(t, p)
	assert.False(t, p.Has("beneficiary"))

	q := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", "org-a"),
		disclosure.Optional("beneficiary", "rec-1"),
	})
	assert.NotEqual(t, p.ID, q.ID)

	assert.Panics(t, func() {
		disclosure.Link(disclosure.Person, nil)
	})
}

func TestLinkRawReference(t *testing.T) {
	l := disclosure.Link(disclosure.UnknownLink, []disclosure.Endpoint{
		disclosure.Required("subject", "physician-1"),
		disclosure.Required("object", "4021"),
	})
	require.NotNil(t, l)
	l.Add("role", "same as")
	assert.Equal(t, "physician-1", l.First("subject"))
	assert.Equal(t, "4021", l.First("object"))
	assert.NoError(t, l.Validate())

	// A raw reference is directed: swapping the ends is another edge.
	back := disclosure.Link(disclosure.UnknownLink, []disclosure.Endpoint{
		disclosure.Required("subject", "4021"),
		disclosure.Required("object", "physician-1"),
	})
	require.NotNil(t, back)
	assert.NotEqual(t, l.ID, back.ID)
}
