package services

import (
	"net/http"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
)

// SessionResolver turns a request carrying the session cookie into a full
// user profile. The gateway handshake and the HTTP middleware both resolve
// identities through it.
type SessionResolver struct {
	users repositories.IUserRepository
}

func NewSessionResolver(users repositories.IUserRepository) *SessionResolver {
	return &SessionResolver{users: users}
}

func (r *SessionResolver) Authenticate(req *http.Request) (domain.User, error) {
	id, err := auth.ResolveSession(req)
	if err != nil {
		return domain.User{}, err
	}
	user, err := r.users.GetByID(id)
	if err != nil {
		// A valid token for a deleted account is still unauthenticated.
		return domain.User{}, errors.ErrUnauthenticated
	}
	return user, nil
}
