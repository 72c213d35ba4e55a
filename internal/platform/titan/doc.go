// Package titan implements the REST client for the Titan22 Magento store and
// its payment gateway. Every call reduces the HTTP response to an Outcome
// (Success, Unauthorized or Failure) so the checkout pipeline never inspects
// raw status codes; transport errors and malformed bodies reduce to Failure.
package titan
