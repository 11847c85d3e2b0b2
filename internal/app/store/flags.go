/*
Package store holds the in-memory user records and cosmetic catalog shared by
every component of the hub.

This file defines the capability bitset carried by user records and used to
gate cosmetic eligibility.
*/
package store

// Flags is an 8-bit capability bitset. It serializes as its numeric value.
type Flags uint8

const (
	FlagDeveloper Flags = 1 << iota
	FlagStaff
	FlagContributor
	FlagEarlyUser
	FlagBetaTester
	FlagSupporter
	FlagClaimedOne
	FlagClaimedTwo
)

// Contains reports whether every bit in required is set in f.
func (f Flags) Contains(required Flags) bool {
	return f&required == required
}
