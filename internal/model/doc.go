// Package model defines the core data structures used throughout formbuilder.
//
// This package contains the following main types:
//   - Snapshot: the ordered field name to value mapping that is submitted
//   - Outcome: the user-visible result of a submission attempt
//   - Template and FieldSpec: stored form definitions
//   - Submission and SubmissionReport: validated payloads kept by the server
//
// Several packages (form, submitter, formdef, database, report) share these
// types, so they live here to keep the import graph acyclic.
package model
