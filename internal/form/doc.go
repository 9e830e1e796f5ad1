// Package form models an HTML form outside of a browser.
//
// A page is parsed with golang.org/x/net/html and the form with a given id
// becomes a Form: its controls in document order, each with a current and a
// default state. Callers fill the form with Set and Check, take a Snapshot
// to obtain the JSON payload, and Reset it after a successful submission.
//
// Snapshot follows the browser's form data serialization, then applies the
// checkbox rule: every named checkbox is present as a boolean.
package form
