package bonsai

import "github.com/jward/bonsai/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.

type Store = store.Store
type File = store.File
type Document = store.Document
type Report = store.Report
type Import = store.Import
type Failure = store.Failure
type Totals = store.Totals
