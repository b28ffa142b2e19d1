package depsync_test

import (
	"context"
	"fmt"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/importer"
	"github.com/objectsync/depsync/relmap"
	"github.com/objectsync/depsync/store"
)

// Example imports a small lexicon entry together with everything it depends
// on. The source store holds the records; a declared relation map tells the
// engine how records relate to each other.
func Example() {
	source := store.NewMemoryStore().
		Put(depsync.NewRecord("A", "entry").WithProperty("senses", []string{"B", "C"})).
		Put(depsync.NewRecord("B", "sense").WithProperty("target", "D")).
		Put(depsync.NewRecord("C", "sense")).
		Put(depsync.NewRecord("D", "entry"))

	relations := relmap.Map{
		"entry": {{Name: "senses", Kind: "ownership", Types: []string{"sense"}}},
		"sense": {{Name: "target", Kind: "reference", Types: []string{"entry"}}},
	}

	intro, err := relmap.NewIntrospector(source, relations)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	target := store.NewMemoryStore()
	imp := importer.New(intro, target)

	result, err := imp.ImportWithDependencies(context.Background(), []string{"A"}, depsync.DefaultConfig())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, change := range result.Changes {
		fmt.Printf("%d %s %s\n", change.Seq, change.RecordID, change.Outcome)
	}
	fmt.Printf("created %d\n", result.Created)

	// Output:
	// 0 A created
	// 1 C created
	// 2 D created
	// 3 B created
	// created 4
}
