// Package store provides the document storage layer for TinyInsta.
//
// Documents are schemaless attribute maps grouped by kind ("User", "Post")
// and addressed by a single string key. Two implementations share the same
// [Store] contract:
//
//   - [Dynamo] persists each kind in its own DynamoDB table, keyed by "id".
//     Equality-filtered, ordered queries run against a global secondary
//     index named "<filter>-<order>-index" (e.g. "author-created-index").
//   - [Memory] keeps everything in process. It backs the test suites and the
//     local development driver.
//
// # Batch limits
//
// The store imposes hard batch-size limits, matching DynamoDB's:
//
//   - [MaxBatchPut] / [MaxBatchDelete] items per PutMulti / DeleteMulti
//   - [MaxBatchGet] keys per GetMulti
//
// Callers own the chunking. A call exceeding the limit fails up front with
// [ErrBatchTooLarge] and writes nothing. Chunked callers that fail midway
// report progress with [PartialError].
//
// # Queries
//
// [Query] supports exactly one equality filter combined with one sort key.
// Cross-field IN + ORDER BY combinations are deliberately unsupported; the
// reference store executes them unreliably.
//
// # Errors
//
//   - [ErrNotFound] - no document under the given kind and key
//   - [ErrBatchTooLarge] - batch exceeds the store limit
//   - [ErrUnknownKind] - kind has no configured table
//
// Transport failures are returned unwrapped; the store performs no retries.
package store
