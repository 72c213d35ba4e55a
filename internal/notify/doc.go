// Package notify delivers checkout success notifications to Discord-style
// webhooks. Delivery is fire and forget: a failed or missing webhook never
// affects task state.
package notify
