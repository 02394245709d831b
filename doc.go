// Package mnemograph provides search fusion and pattern mining over a
// property graph of development memories and code entities.
//
// A query fans out across five retrieval strategies (semantic similarity,
// keyword, temporal, relationship traversal, and mined patterns), guided by
// an LLM intent classifier with a deterministic keyword fallback. Results
// are merged, ranked, filtered, faceted, and paginated into one unified
// response. Every graph access is compiled against the caller's tenancy
// scope; there is no unscoped query path.
//
// # Basic Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := mnemograph.NewClientFromConfig(cfg, slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	resp, err := client.Search(ctx, types.SearchRequest{Query: "auth bug last week"},
//		scope.Context{UserID: "u1"})
//
// Pattern detection is a batch job over the same graph:
//
//	patterns, err := client.DetectPatterns(ctx, uuid.NewString(), nil, 0,
//		scope.Context{UserID: "u1"})
package mnemograph
