package auth

import "github.com/webtrio/webfolio/internal/email"

// AllowList is the fixed set of identities permitted to authenticate.
// It's configured at construction time and immutable afterwards.
type AllowList struct {
	set map[email.Address]struct{}
}

// NewAllowList creates an allow list from the provided addresses.
// Addresses are normalized, lookups are case-insensitive.
func NewAllowList(addrs []email.Address) AllowList {
	set := make(map[email.Address]struct{}, len(addrs))
	for _, addr := range addrs {
		set[addr.Normalize()] = struct{}{}
	}

	return AllowList{set: set}
}

// Contains reports whether the address is on the allow list.
func (l AllowList) Contains(addr email.Address) bool {
	_, ok := l.set[addr.Normalize()]
	return ok
}

// Len returns the number of addresses on the allow list.
func (l AllowList) Len() int {
	return len(l.set)
}
