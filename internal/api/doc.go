// Package api is the control channel of the checkout engine: it handles
// incoming HTTP requests, routing, payload validation, and response
// formatting, translating REST and websocket traffic into task registry and
// engine operations.
package api
