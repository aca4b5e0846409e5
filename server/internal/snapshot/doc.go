// Package snapshot fetches the bots, workers and logs collections from a
// configured Source, validates them and builds the frozen store.
//
// Sources:
//   - file: bots/workers/logs as .json or .yaml documents in a directory
//   - sql: bots/workers/logs tables read through database/sql
//     (modernc.org/sqlite or pgx)
//   - s3: <prefix>{bots,workers,logs}.json objects in a bucket
//   - http: <base_url>/{bots,workers,logs}.json fetched with resty
//
// Every failure on this path is fatal to startup: Load either returns a
// complete store or an error, never a partial snapshot.
package snapshot
