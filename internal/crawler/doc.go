// Package crawler defines the records, sentinel errors, and collaborator
// interfaces shared by the catalog crawler, the headline crawler, the fetch
// adapters, and the item stores.
package crawler
