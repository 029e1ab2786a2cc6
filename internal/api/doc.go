// Package api exposes the ledger over HTTP. It owns routing,
// authentication, CORS, rate limiting and the JSON response shapes;
// all domain behavior lives in the ledger package.
package api
