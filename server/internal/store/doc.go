// Package store holds the frozen, in-memory snapshot of bots, workers and
// logs.
//
// Load builds id-keyed indices in one pass per collection and resolves the
// name-based references (worker → bot, log → bot, log → worker) into ids.
// After Load returns the Store is never written again, so any number of
// goroutines may read it without locking.
//
// Every collection is exposed through the same Finder capability
// (FindAll, FindByID), implemented once by Collection.
package store
