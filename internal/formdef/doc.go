// Package formdef turns stored form templates into something usable: an
// HTML page for the browser and a validator for submitted JSON.
//
// Validation messages follow the wording of Django forms, which existing
// front ends already display verbatim.
package formdef
