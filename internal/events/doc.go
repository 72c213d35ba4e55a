// Package events decouples the task registry from the consumers of task
// changes (the websocket feed, the snapshot archive, metrics). The registry
// emits a TaskEvent after every mutation; handlers subscribe without the
// registry knowing who they are.
package events
