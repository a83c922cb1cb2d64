// Package indigo manages and serves legislation encoded as Akoma Ntoso
// XML, addressed by FRBR URIs.
//
// A Work is a piece of legislation; its content at a point in time, in one
// language, is a Document (an FRBR expression). Amendments between works
// produce new points in time. The service resolves FRBR URIs to the right
// expression, derives tables of contents and timelines, and manages the
// editorial workflow around the collection.
//
// Construct a Service with a Repository and optional blob stores:
//
//	svc, err := indigo.New(
//		indigo.WithRepository(memory.New()),
//		indigo.WithBlobStore("fs", fsstorage),
//	)
//
// Repositories live in repo/memory and repo/postgres; media storage
// backends in storage/memory, storage/fs and storage/s3; HTTP handlers in
// api.
package indigo
