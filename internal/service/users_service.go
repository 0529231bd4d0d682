package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignIn is the result of a successful login: the session and its token.
type SignIn struct {
	Session session.Session `json:"session"`
	Token   string          `json:"token"`
}

type UsersService interface {
	Register(ctx context.Context, name, email, password string) (*SignIn, error)
	Login(ctx context.Context, email, password string) (*SignIn, error)
	SignInExternal(ctx context.Context, name, email, externalID string) (*SignIn, error)
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type usersService struct {
	repo       repository.UsersRepository
	issuer     *session.Issuer
	bcryptCost int
}

func NewUsersService(repo repository.UsersRepository, issuer *session.Issuer, bcryptCost int) UsersService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &usersService{
		repo:       repo,
		issuer:     issuer,
		bcryptCost: bcryptCost,
	}
}

func (s *usersService) Register(ctx context.Context, name, email, password string) (*SignIn, error) {
	const op = "service.users.Register"

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, errs.ErrInvalidInput
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.AddUser(ctx, name, email, string(hash))
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.signIn(user)
}

// Login never tells a wrong email apart from a wrong password.
func (s *usersService) Login(ctx context.Context, email, password string) (*SignIn, error) {
	const op = "service.users.Login"

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	return s.signIn(user)
}

// SignInExternal signs in a user vouched for by an external identity
// provider, creating the account on first use. An existing account is only
// reachable through the subject that created it; password accounts cannot be
// claimed this way.
func (s *usersService) SignInExternal(ctx context.Context, name, email, externalID string) (*SignIn, error) {
	const op = "service.users.SignInExternal"

	email = normalizeEmail(email)
	if email == "" || externalID == "" {
		return nil, errs.ErrInvalidInput
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.ExternalSubject == nil ||
			subtle.ConstantTimeCompare([]byte(*user.ExternalSubject), []byte(externalID)) != 1 {
			return nil, errs.ErrInvalidCredentials
		}
		return s.signIn(user)
	case !errors.Is(err, errs.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = "External user"
	}

	// External accounts get a random password nobody knows.
	hash, err := s.hashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err = s.repo.AddExternalUser(ctx, name, email, string(hash), externalID)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.signIn(user)
}

func (s *usersService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *usersService) signIn(user *models.User) (*SignIn, error) {
	const op = "service.users.signIn"

	sess := session.New(user.ID, user.Name)
	token, err := s.issuer.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SignIn{Session: sess, Token: token}, nil
}

func (s *usersService) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, errs.ErrInvalidInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
