// Package types defines the shared data model for the LNRS database
// lifecycle core: configuration, statement batches, snapshot records,
// entity and table names, and the error taxonomy returned by the store,
// cascade, and snapshot layers.
package types
