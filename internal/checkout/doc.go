// Package checkout drives the per-task purchase pipeline: authenticate,
// fetch profile, create and clean the cart, add an item, set shipping, then
// wait for the scheduled window and place the order. Each stage retries
// without an attempt limit; the only ways out are success, a stop command
// observed through the registry, or an authorization loss that restarts the
// whole pipeline with cleared transaction data.
package checkout
