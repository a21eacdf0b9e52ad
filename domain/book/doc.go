// Package book implements the in-memory matching engine for a single
// instrument. It maintains two red-black trees for the bid and ask
// sides, matches incoming limit and market orders against resting
// liquidity in price priority, and notifies a listener of every fill.
//
// Allocation within one price level is governed by a fill strategy
// fixed at construction: arrival order, lowest remaining quantity
// first, or highest remaining quantity first.
//
// The book is a single-writer object with no internal locking; callers
// own it exclusively and listener callbacks must not re-enter it.
package book
