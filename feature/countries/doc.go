// Package countries maintains the local cache of per-country economic data.
//
// A refresh run fetches two independent upstream feeds concurrently (the
// country directory and the USD exchange-rate feed), reconciles every raw
// entry into a canonical record with a derived GDP estimate, resolves each
// record's identity against the cache case-insensitively, and commits the
// whole run as a single transaction. Either both feeds succeed or the run
// fails with a FeedError naming the feed that broke; a commit-time failure
// rolls the entire run back.
//
// # Identity
//
// Countries are keyed by a surrogate id that stays stable across refreshes.
// The incoming name is matched case-insensitively against the cache before
// each upsert, and stored title-cased, so "france" and "FRANCE" always land
// on the same row.
//
// # GDP estimate
//
// For entries whose currency has a known rate, estimated GDP is
// population * m / rate with m drawn uniformly from a configured range
// (default [1000, 2000]) per entry per run. Entries without a currency code
// get an estimate of exactly 0; entries whose code has no known rate get no
// estimate at all.
package countries
