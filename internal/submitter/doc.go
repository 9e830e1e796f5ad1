// Package submitter sends form snapshots to a server and reports the
// outcome.
//
// A Submitter is built from an explicit Config (the submit URL) and a
// csrf.TokenProvider. Handle runs the whole user-facing flow against a
// form.Form and a display.Display:
//
//  1. show "Submitting..." in black
//  2. snapshot the form
//  3. POST the snapshot as JSON with Content-Type and X-CSRFToken headers
//  4. show the outcome: success (green, form reset), rejection, server
//     error or network error (crimson)
//
// BuildRequest and Interpret are pure and hold the protocol rules, so they
// can be tested without a network. Batch runs many submissions concurrently.
//
// There are no retries. Every attempt ends in exactly one terminal outcome.
package submitter
