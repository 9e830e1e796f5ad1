// Package server serves form templates as HTML pages and stores their
// JSON submissions.
//
// Routes:
//
//	GET  /                     index of active templates, newest first
//	GET  /forms/{pk}/          rendered form; issues the csrftoken cookie
//	POST /forms/{pk}/submit/   JSON submission; requires X-CSRFToken
//	GET  /static/form.js       browser script that submits the form
//
// A valid submission is stored and answered with {"ok":true}. An invalid
// one gets 400 with {"ok":false,"errors":{field:[message]}}. A body that
// is not a JSON object gets 400 "Invalid JSON".
package server
