// Package bonsai reads Python source and prunes its syntax tree into a
// reduced, semantically grouped tree. Similar node kinds are merged into
// shared categories, identifiers are tagged with their provenance, and a
// comparison report measures how much smaller the reduced tree is.
//
// # Pipeline
//
// Compressing one file runs five steps:
//
//  1. Parse: tree-sitter reads the source and the frontend lowers it into
//     the pyast model.
//  2. Resolve: a Risor script decides which imported names are system
//     modules (standard library or found on the search paths).
//  3. Build: the reduced tree is constructed in lock-step with the source
//     tree, applying the import, name, call, keyword and attribute rules.
//  4. Serialize: the tree folds into {CAST_type, CAST_body} documents.
//  5. Evaluate: both documents are tallied by kind and node count.
//
// # Usage
//
// Compress a single file:
//
//	c, err := bonsai.NewCompressor()
//	if err != nil { ... }
//	res, err := c.CompressFile(ctx, "app.py")
//	fmt.Println(res.Comparison.Reduced.TotalNodes)
//
// Run a dataset into a ledger and read it back:
//
//	e, err := bonsai.New("bonsai.db", "")
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "path/to/project")
//	reports, err := e.Query().Reports()
//
// # Incremental runs
//
// [Engine.IndexFiles] hashes every file and skips the ones whose content
// matches the ledger. A file that fails to compress is recorded in the
// failures table and the run continues. [Engine.ScriptsChanged] reports
// whether the resolution scripts differ from the ones that built the
// ledger, in which case the caller should rebuild it.
package bonsai
