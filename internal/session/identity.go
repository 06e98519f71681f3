// Package session models the cart-owning identity of a request.
//
// A request is either an authenticated user (JWT bearer token) or an
// anonymous guest (opaque cookie token). The identity is resolved once by
// middleware and passed explicitly to handlers, never re-read from ambient
// state.
package session

// Kind discriminates the two identity variants.
type Kind int

const (
	KindGuest Kind = iota
	KindUser
)

// Identity is a tagged union: exactly one of UserID / GuestToken is
// meaningful, selected by Kind.
type Identity struct {
	Kind       Kind
	UserID     int64
	GuestToken string
}

// Guest builds a guest identity from a cookie token.
func Guest(token string) Identity {
	return Identity{Kind: KindGuest, GuestToken: token}
}

// User builds an authenticated identity.
func User(id int64) Identity {
	return Identity{Kind: KindUser, UserID: id}
}

func (i Identity) IsUser() bool {
	return i.Kind == KindUser
}
