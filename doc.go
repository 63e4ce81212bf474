// Package elasticbud is a resilient client for Elasticsearch/OpenSearch-
// compatible search clusters, built around an explicit, owned Client rather
// than ambient process state so several independently configured clients can
// coexist in one process.
//
// Key features:
//
//   - Connection configuration from the environment (ELASTICBUD_* variables)
//     with fail-fast validation before any network activity
//   - Bounded retries with exponential backoff on transient failures, with
//     the last cause preserved in the returned error
//   - A typed query expression tree (see the query subpackage) encoded
//     deterministically to the cluster's wire format
//   - Bulk operations with ordered, per-item results where one bad item
//     never aborts the batch
//   - A local quota gate (see the quota subpackage) admitting operations
//     against a windowed unit budget, fed back by cluster rate limiting
//
// Basic usage:
//
//	var cfg elasticbud.ClusterConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := elasticbud.New(cfg,
//	    elasticbud.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.CheckCluster(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := client.Index(ctx, elasticbud.Document{
//	    Index:  "articles",
//	    Fields: map[string]any{"title": "Go clients", "views": 12},
//	})
//
//	result, err := client.Search(ctx, "articles",
//	    query.Match("title", "go"),
//	    elasticbud.WithSize(10),
//	)
//
// # Error Handling
//
// Failures are classified into sentinel errors and typed errors, all
// checkable with errors.Is / errors.As: ErrInvalidConfig (validation, no
// network call attempted), *TransportError (network failure after all
// retries, matches ErrTransportFailed), *RequestError (cluster rejection
// with the cluster's payload attached, matches ErrRequestRejected),
// ErrEncodeFailed / ErrDecodeFailed (codec failures, never retried),
// ErrNotFound, and quota.ErrQuotaExceeded (local admission rejection,
// caller-retryable).
package elasticbud
