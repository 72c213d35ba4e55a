// Package domain defines the core business entities of the checkout engine:
// tasks, their status lifecycle, account profiles, and the transaction data
// accumulated while a task works through the checkout pipeline.
package domain
