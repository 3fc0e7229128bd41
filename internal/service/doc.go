// Package service runs the task mutation pipeline: resolve input, commit
// through the versioned store, broadcast, then record the audit entry.
//
// # Conflicts
//
// A client edits against the version it last saw and submits it as the
// baseline. From the client's side a submission moves through:
//
//	Editing -> Submitted -> Applied
//	                     -> Conflicted -> Resolved -> Submitted
//
// A non-forced submission whose baseline no longer matches the stored
// version is rejected with *apperr.ConflictError, which carries the current
// record. Nothing is written, broadcast or logged for it. The client then
// either overwrites (resubmits its own values with Force) or merges (builds a
// combined change set, typically from the current record, and resubmits it
// with Force). A submission without a baseline is treated as forced.
//
// Deletes never conflict.
package service
