// Package http implements the HTTP request handlers for the stockwatch
// web service. Handlers stay thin: they parse and validate the request,
// delegate to the extraction pipeline, the store or the pricing client,
// and render the result. Errors follow RFC 7807 Problem Details.
package http
