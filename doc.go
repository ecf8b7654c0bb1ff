// Package tempograph provides an in-memory temporal document graph engine
// for Go.
//
// Tempograph stores timestamped documents connected by typed relationships
// (sequential, causal, concurrent, branch, merge) and answers temporal
// questions over them: what is reachable forward or backward in time from a
// document, what is the shortest path between two documents, and which
// neighbors deserve attention based on content similarity. A chunked
// analyzer processes long document spans in fixed-size windows with a
// hard-capped carryover, so memory use stays constant regardless of span
// length.
//
// # Basic Usage
//
// Create an engine and ingest documents:
//
//	engine := tempograph.New(nil, nil)
//
//	ctx := context.Background()
//	_, err := engine.AddDocument(ctx, "contract", "Contract signed with Acme", contractDate, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = engine.AddRelationship(ctx, "contract", "claim", types.RelationCausal, 1.0, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Traversal
//
// Reachability is bounded by a time window and a hop count:
//
//	res, err := engine.ForwardDocuments(ctx, "contract", 30, 10, 0)
//	for _, doc := range res.Documents {
//		fmt.Println(doc.ID, doc.Timestamp)
//	}
//
// # Chunked Analysis
//
// Long spans are analyzed window by window. Only a bounded carryover of key
// events, active entities and open causal chains crosses each boundary:
//
//	result, err := engine.AnalyzeChain(ctx, "contract", "settlement", 0)
//	fmt.Println(result.Synthesis)
//
// # Timestamps
//
// Every timestamp is normalized to a canonical UTC instant on ingestion
// (pkg/temporal). Comparing a value that never passed through the
// normalizer fails with ErrIncomparableTimestamp instead of silently
// producing a wrong order.
//
// # Error Handling
//
// The library provides typed errors for common scenarios:
//
//   - ErrNotFound: a requested document does not exist
//   - ErrDuplicateDocument: an insert reused an existing id
//   - ErrNoPath: no path exists within the hop bound
//   - ErrIncomparableTimestamp: a raw timestamp leaked into a comparison
//
// # Architecture
//
//   - pkg/temporal: canonical timestamp representation and layer bucketing
//   - pkg/store: in-memory graph with adjacency and a weekly layer index
//   - pkg/traversal: bounded BFS reachability and shortest paths
//   - pkg/similarity: TF-IDF similarity and attention ranking
//   - pkg/analyzer: chunked bounded-memory analysis
//   - pkg/server: HTTP API over the engine
package tempograph
