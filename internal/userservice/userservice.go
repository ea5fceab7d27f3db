package userservice

import (
	"context"
	"crypto/md5" // #nosec G501 -- gravatar addresses images by md5 of the email
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/haguru/notedly/internal/apperrors"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/models/dto"
	"github.com/haguru/notedly/pkg/helper"
)

type UserService struct {
	UserRepo interfaces.UserRepository
	Tokens   interfaces.TokenManager
	Logger   interfaces.Logger
	Metrics  interfaces.Metrics
	validate *validator.Validate
}

// NewUserService creates a new UserService instance.
func NewUserService(repo interfaces.UserRepository, tokens interfaces.TokenManager, logger interfaces.Logger, m interfaces.Metrics) *UserService {
	return &UserService{
		UserRepo: repo,
		Tokens:   tokens,
		Logger:   logger,
		Metrics:  m,
		validate: validator.New(),
	}
}

// GravatarURL returns the identicon avatar URL for an already normalized email.
func GravatarURL(email string) string {
	return fmt.Sprintf(gravatarURL, md5.Sum([]byte(email))) // #nosec G401
}

// SignUp normalizes and validates the input, stores the user with a bcrypt
// hashed password and returns a signed token.
func (s *UserService) SignUp(ctx context.Context, input dto.SignUpInput) (string, error) {
	funcName := helper.GetFuncName()
	input.Email = models.NormalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	s.Logger.Debug("Entering function", "func", funcName, "user", input.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", input.Username)

	if err := s.validate.Struct(input); err != nil {
		s.Logger.Warn(ErrInvalidInput, "func", funcName, "user", input.Username, "error", err)
		return "", apperrors.InvalidInput(ErrCreatingAccount, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.Logger.Error(ErrFailedToHashPassword, "func", funcName, "user", input.Username, "error", err)
		return "", apperrors.Internal(ErrCreatingAccount, fmt.Errorf("%s: %w", ErrFailedToHashPassword, err))
	}

	user := models.NewUser(input.Username, input.Email, string(hashedPassword), GravatarURL(input.Email))
	userID, err := s.UserRepo.AddUser(ctx, *user)
	if err != nil {
		s.Logger.Error(ErrFailedToRegisterUser, "func", funcName, "user", input.Username, "error", err)
		if errors.Is(err, interfaces.ErrDuplicateUser) {
			return "", apperrors.Conflict(ErrCreatingAccount, err)
		}
		return "", apperrors.Internal(ErrCreatingAccount, fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err))
	}

	token, err := s.Tokens.CreateToken(userID)
	if err != nil {
		s.Logger.Error(ErrFailedToCreateToken, "func", funcName, "user", input.Username, "error", err)
		return "", apperrors.Internal(ErrCreatingAccount, fmt.Errorf("%s: %w", ErrFailedToCreateToken, err))
	}

	s.Metrics.IncCounter(metrics.SignUps)
	s.Logger.Info("User registered successfully", "func", funcName, "user", input.Username, "ID", userID)
	return token, nil
}

// SignIn looks the user up by email, or by username when no email is given,
// and returns a signed token when the password matches.
func (s *UserService) SignIn(ctx context.Context, input dto.SignInInput) (string, error) {
	funcName := helper.GetFuncName()
	input.Email = models.NormalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	s.Logger.Debug("Entering function", "func", funcName, "user", input.Username, "email", input.Email)
	defer s.Logger.Debug("Exiting function", "func", funcName)

	if err := s.validate.Struct(input); err != nil {
		s.Logger.Warn(ErrInvalidInput, "func", funcName, "error", err)
		return "", apperrors.InvalidInput(ErrSigningIn, err)
	}
	if input.Email == "" && input.Username == "" {
		return "", apperrors.InvalidInput(ErrSigningIn, errors.New("email or username is required"))
	}

	var (
		user *models.User
		err  error
	)
	if input.Email != "" {
		user, err = s.UserRepo.GetUserByEmail(ctx, input.Email)
	} else {
		user, err = s.UserRepo.GetUserByUsername(ctx, input.Username)
	}
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "error", err)
		return "", apperrors.Internal(ErrSigningIn, fmt.Errorf("%s: %w", ErrRetrievingUser, err))
	}
	if user == nil {
		s.Logger.Warn(ErrUserNotFound, "func", funcName, "user", input.Username, "email", input.Email)
		return "", apperrors.Unauthenticated(ErrSigningIn)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password)); err != nil {
		s.Logger.Warn(ErrInvalidPassword, "func", funcName, "user", user.Username)
		return "", apperrors.Unauthenticated(ErrSigningIn)
	}

	token, err := s.Tokens.CreateToken(user.ID)
	if err != nil {
		s.Logger.Error(ErrFailedToCreateToken, "func", funcName, "user", user.Username, "error", err)
		return "", apperrors.Internal(ErrSigningIn, fmt.Errorf("%s: %w", ErrFailedToCreateToken, err))
	}

	s.Metrics.IncCounter(metrics.SignIns)
	s.Logger.Info("User authenticated successfully", "func", funcName, "user", user.Username)
	return token, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", helper.GetFuncName(), "id", id, "error", err)
		return nil, apperrors.Internal(ErrRetrievingUser, err)
	}
	return user, nil
}

// GetUserByUsername returns nil for unknown or out-of-range usernames.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := s.validate.Struct(dto.UserLookupInput{Username: username}); err != nil {
		return nil, nil
	}
	user, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", helper.GetFuncName(), "user", username, "error", err)
		return nil, apperrors.Internal(ErrRetrievingUser, err)
	}
	return user, nil
}

func (s *UserService) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	users, err := s.UserRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", helper.GetFuncName(), "error", err)
		return nil, apperrors.Internal(ErrRetrievingUser, err)
	}
	return users, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.UserRepo.ListUsers(ctx)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", helper.GetFuncName(), "error", err)
		return nil, apperrors.Internal(ErrRetrievingUser, err)
	}
	return users, nil
}
