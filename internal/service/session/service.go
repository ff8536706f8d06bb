package session

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Service issues identity tokens and resolves the role claim once per
// session. Role checks elsewhere read the resolved value; nothing ever
// re-derives admin from an email comparison.
type Service struct {
	tokens   *tokenManager
	roleRepo roleRepo
	tokenTTL time.Duration
}

type roleRepo interface {
	GetByUserID(ctx context.Context, userID string) (string, error)
}

func New(roleRepo roleRepo) *Service {
	return &Service{
		tokens:   newTokenManager(),
		roleRepo: roleRepo,
		tokenTTL: 30 * 24 * time.Hour,
	}
}

// Identity is what a token resolves to: a durable identity id for cart
// ownership and the role claim fixed at issue time.
type Identity struct {
	ID   string
	Role string
}

// IssueAnonymous mints a token for a browser with no account. Anonymous
// identities are always plain customers.
func (s *Service) IssueAnonymous(ctx context.Context) (token string, identity Identity, err error) {
	id, err := randomID()
	if err != nil {
		return "", Identity{}, err
	}
	identity = Identity{ID: id, Role: domain.RoleCustomer}
	token, err = s.tokens.Issue(identity, s.tokenTTL)
	if err != nil {
		return "", Identity{}, err
	}
	return token, identity, nil
}

// IssueForUser mints a token for an authenticated user, resolving the role
// claim from the policy table exactly once.
func (s *Service) IssueForUser(ctx context.Context, userID string) (token string, identity Identity, err error) {
	role, err := s.roleRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", Identity{}, err
	}
	identity = Identity{ID: userID, Role: role}
	token, err = s.tokens.Issue(identity, s.tokenTTL)
	if err != nil {
		return "", Identity{}, err
	}
	return token, identity, nil
}

// Resolve maps a token back to its identity.
func (s *Service) Resolve(ctx context.Context, token string) (Identity, error) {
	identity, ok := s.tokens.Validate(token)
	if !ok {
		return Identity{}, domain.ErrInvalidToken
	}
	return identity, nil
}

// Revoke tears down a session on logout.
func (s *Service) Revoke(token string) {
	s.tokens.Revoke(token)
}
