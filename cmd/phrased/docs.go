package main

// General API documentation for swaggo. Regenerate internal/httpapi/docs
// with `swag init -g cmd/phrased/docs.go -o internal/httpapi/docs`.
//
// @title           phrased API
// @version         1.0
// @description     Local model acquisition and English rephrasing over HTTP.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
