// Package main provides the entry point for the formbuilder CLI.
//
// formbuilder serves forms built from stored templates and submits form
// pages as JSON, reporting the outcome the way the page's own script would.
//
// Usage:
//
//	formbuilder serve
//	formbuilder submit <form-page-url>
//	formbuilder submit --list <file>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
