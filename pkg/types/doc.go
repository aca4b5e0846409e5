// Package types defines the entities served by botdeck: bots, the workers
// they own and the logs both of them emit. These are the canonical in-memory
// representations, shared by the snapshot loaders, the store and the API.
package types
