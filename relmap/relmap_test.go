package relmap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
	"github.com/objectsync/depsync/relmap"
	"github.com/objectsync/depsync/store"
)

// lexiconRelations declares the model used across these tests: an entry owns
// its senses, a sense may reference other entries, and entries may
// cross-reference each other ("see also").
func lexiconRelations() relmap.Map {
	return relmap.Map{
		"entry": {
			{Name: "senses", Kind: "ownership", Types: []string{"sense"}},
			{Name: "see_also", Kind: "cross_reference"},
		},
		"sense": {
			{Name: "target", Kind: "reference", Types: []string{"entry"}},
		},
	}
}

func TestRelation_EdgeKind(t *testing.T) {
	tests := []struct {
		kind    string
		want    graph.EdgeKind
		wantErr bool
	}{
		{kind: "ownership", want: graph.Ownership},
		{kind: "reference", want: graph.Reference},
		{kind: "cross_reference", want: graph.CrossReference},
		{kind: "owns", wantErr: true},
		{kind: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := relmap.Relation{Name: "x", Kind: tt.kind}.EdgeKind()
			if tt.wantErr {
				assert.ErrorIs(t, err, relmap.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMap_Validate(t *testing.T) {
	require.NoError(t, lexiconRelations().Validate())

	bad := relmap.Map{"entry": {{Name: "", Kind: "ownership"}}}
	assert.ErrorIs(t, bad.Validate(), relmap.ErrEmptyRelationName)

	bad = relmap.Map{"entry": {{Name: "senses", Kind: "contains"}}}
	assert.ErrorIs(t, bad.Validate(), relmap.ErrUnknownKind)
}

func TestRelatedIDs(t *testing.T) {
	rel := relmap.Relation{Name: "senses", Kind: "ownership"}

	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{name: "absent", value: nil, want: nil},
		{name: "single id", value: "s1", want: []string{"s1"}},
		{name: "empty string", value: "", want: nil},
		{name: "string slice", value: []string{"s1", "s2"}, want: []string{"s1", "s2"}},
		{name: "any slice", value: []any{"s1", 7, "s2", ""}, want: []string{"s1", "s2"}},
		{name: "wrong type", value: 42, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := depsync.NewRecord("e1", "entry")
			if tt.value != nil {
				record = record.WithProperty("senses", tt.value)
			}
			assert.Equal(t, tt.want, relmap.RelatedIDs(record, rel))
		})
	}
}

func TestNewIntrospector_RejectsInvalidMap(t *testing.T) {
	_, err := relmap.NewIntrospector(store.NewMemoryStore(), relmap.Map{
		"entry": {{Name: "senses", Kind: "contains"}},
	})
	assert.ErrorIs(t, err, relmap.ErrUnknownKind)
}

func lexiconStore() *store.MemoryStore {
	return store.NewMemoryStore().
		Put(depsync.NewRecord("A", "entry").
			WithProperty("senses", []string{"B", "C"}).
			WithProperty("see_also", "D")).
		Put(depsync.NewRecord("B", "sense").WithProperty("target", "D")).
		Put(depsync.NewRecord("C", "sense")).
		Put(depsync.NewRecord("D", "entry"))
}

func TestIntrospector_ResolvesDeclaredRelations(t *testing.T) {
	in, err := relmap.NewIntrospector(lexiconStore(), lexiconRelations())
	require.NoError(t, err)

	ctx := context.Background()
	root, err := in.Lookup(ctx, "A")
	require.NoError(t, err)

	owned, err := in.OwnedChildren(ctx, root)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "B", owned[0].Record.ID)
	assert.Equal(t, "C", owned[1].Record.ID)

	sense, err := in.Lookup(ctx, "B")
	require.NoError(t, err)
	refs, err := in.Referenced(ctx, sense)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "D", refs[0].Record.ID)

	cross, err := in.CrossReferenced(ctx, root)
	require.NoError(t, err)
	require.Len(t, cross, 1)
	assert.Equal(t, "D", cross[0].Record.ID)
}

func TestIntrospector_MissingRelatedRecordFailsBranch(t *testing.T) {
	src := store.NewMemoryStore().
		Put(depsync.NewRecord("A", "entry").WithProperty("senses", "ghost"))

	in, err := relmap.NewIntrospector(src, lexiconRelations())
	require.NoError(t, err)

	root, err := in.Lookup(context.Background(), "A")
	require.NoError(t, err)

	_, err = in.OwnedChildren(context.Background(), root)
	assert.ErrorIs(t, err, depsync.ErrRecordNotFound)
}

func TestIntrospector_TypeFilterDropsMismatches(t *testing.T) {
	// "senses" only accepts records of type sense; D is an entry.
	src := store.NewMemoryStore().
		Put(depsync.NewRecord("A", "entry").WithProperty("senses", []string{"B", "D"})).
		Put(depsync.NewRecord("B", "sense")).
		Put(depsync.NewRecord("D", "entry"))

	in, err := relmap.NewIntrospector(src, lexiconRelations())
	require.NoError(t, err)

	root, err := in.Lookup(context.Background(), "A")
	require.NoError(t, err)

	owned, err := in.OwnedChildren(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "B", owned[0].Record.ID)
}

func TestIntrospector_Referrers(t *testing.T) {
	in, err := relmap.NewIntrospector(lexiconStore(), lexiconRelations())
	require.NoError(t, err)

	ctx := context.Background()
	target, err := in.Lookup(ctx, "D")
	require.NoError(t, err)

	// B references D through "target"; A cross-references D through
	// "see_also". A's ownership of B and C never makes A a referrer.
	all, err := in.Referrers(ctx, target, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Record.ID)
	assert.Equal(t, "B", all[1].Record.ID)

	senses, err := in.Referrers(ctx, target, []string{"sense"})
	require.NoError(t, err)
	require.Len(t, senses, 1)
	assert.Equal(t, "B", senses[0].Record.ID)
}
