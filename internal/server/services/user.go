// Package services contains server-side business logic. This file implements
// UserService: user CRUD with hash-on-write, and login that verifies a
// password and issues a session token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/financa/internal/common"
	"github.com/dmitrijs2005/financa/internal/dbx"
	"github.com/dmitrijs2005/financa/internal/logging"
	"github.com/dmitrijs2005/financa/internal/server/auth"
	"github.com/dmitrijs2005/financa/internal/server/models"
	"github.com/dmitrijs2005/financa/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and checks raw passwords.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(raw, stored string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(s auth.Subject) (string, error)
}

// CreateUserInput carries the fields of a new user and its raw password.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateUserInput carries replacement fields. ID, when set, must match the
// id being updated. An empty Password leaves the stored hash unchanged.
type UpdateUserInput struct {
	ID       *int64
	Name     string
	Email    string
	Password string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// UserService reports its outcomes through the common sentinels:
// ErrorValidation, ErrorNotFound, ErrorUnauthorized, ErrorAlreadyExists and
// ErrorInternal. Store failures are logged here and never passed upward.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	issuer      TokenIssuer
	logger      logging.Logger

	// dummyHash is compared against on unknown emails so that branch costs
	// the same bcrypt work as a wrong password.
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, i TokenIssuer, l logging.Logger) (*UserService, error) {
	dummy, err := h.Hash("financa-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("password hashing unavailable: %w", err)
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		issuer:      i,
		logger:      l.With("module", "user_service"),
		dummyHash:   dummy,
	}, nil
}

// Create hashes the raw password and stores the new user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := validateProfile(in.Name, in.Email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash}

	repo := s.repomanager.Users(s.db)
	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, s.storeError(ctx, "create user", err)
	}

	s.logger.Info(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get user", err)
	}
	return user, nil
}

// Update overwrites name and email of user id, and its password hash when
// in.Password is non-empty. The read and the write share one transaction.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	if in.ID != nil && *in.ID != id {
		return nil, fmt.Errorf("%w: id in body does not match id in path", common.ErrorValidation)
	}
	if err := validateProfile(in.Name, in.Email); err != nil {
		return nil, err
	}

	// Hash outside the transaction; bcrypt is slow by construction.
	var newHash string
	if in.Password != "" {
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}
		h, err := s.hashPassword(ctx, in.Password)
		if err != nil {
			return nil, err
		}
		newHash = h
	}

	var updated *models.User
	err := s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		user.Name = in.Name
		user.Email = in.Email
		if newHash != "" {
			user.PasswordHash = newHash
		}

		if err := repo.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, s.storeError(ctx, "update user", err)
	}

	s.logger.Info(ctx, "user updated", "user_id", id, "password_changed", newHash != "")
	return updated, nil
}

// Delete removes the user with the given id.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.Delete(ctx, id); err != nil {
		return s.storeError(ctx, "delete user", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// Login checks email and password and, on success, issues a token.
// Unknown email and wrong password both return ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.issuer.Issue(auth.Subject{ID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &LoginResult{Token: token, User: user.Public()}, nil
}

// --- helpers below ---

func (s *UserService) hashPassword(ctx context.Context, raw string) (string, error) {
	hash, err := s.hasher.Hash(raw)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errPasswordTooLong
	}
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return "", common.ErrorInternal
	}
	return hash, nil
}

// storeError passes the repository outcomes callers act on and collapses
// everything else into ErrorInternal after logging it.
func (s *UserService) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return fmt.Errorf("%w: email is already registered", common.ErrorAlreadyExists)
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}

var errPasswordTooLong = fmt.Errorf("%w: password exceeds %d bytes", common.ErrorValidation, models.MaxPasswordLength)

func validatePassword(raw string) error {
	if len(raw) > models.MaxPasswordLength {
		return errPasswordTooLong
	}
	return nil
}

func validateProfile(name, email string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	case len(name) > models.MaxNameLength:
		return fmt.Errorf("%w: name exceeds %d bytes", common.ErrorValidation, models.MaxNameLength)
	case strings.TrimSpace(email) == "":
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	case len(email) > models.MaxEmailLength:
		return fmt.Errorf("%w: email exceeds %d bytes", common.ErrorValidation, models.MaxEmailLength)
	}
	return nil
}
