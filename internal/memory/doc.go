// Package memory provides the learning memory: a ranked, growable collection
// of short solving insights used as retrieval context for future solves.
//
// # Core Concepts
//
// Each Item carries a trigger (a topic name or the sentinel "General"), the
// insight text, a success rate in [0,1] and its source:
//   - "system": generated by the solver, or seeded from configuration
//   - "user-correction": recorded when a human corrects a parsed problem
//
// Items never change after they are created. New items are prepended, so the
// store order is newest first (seeds excepted, which keep configured order).
//
// # Retrieval
//
// Retrieve returns at most MaxRetrieve items whose trigger equals the topic or
// "General", ordered by success rate descending. Ties keep store order, so more
// recently inserted items come first.
//
//	store := memory.NewStore(seeds...)
//	item, err := memory.NewItem("Calculus", "Use substitution for trig integrals", 1.0, memory.SourceSystem)
//	if err != nil {
//	    return err
//	}
//	store.Insert(*item)
//	ranked := store.Retrieve("Calculus", memory.MaxRetrieve)
//
// There is no eviction and no persistence; the store lives as long as the process.
//
// Store is safe for concurrent use.
package memory
