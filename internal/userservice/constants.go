package userservice

const (
	// Client-facing messages. Causes are logged, never returned.
	ErrCreatingAccount = "Error creating account"
	ErrSigningIn       = "Error signing in"

	// Log messages for user service operations
	ErrFailedToHashPassword = "failed to hash password" // #nosec G101
	ErrFailedToRegisterUser = "failed to register user"
	ErrFailedToCreateToken  = "failed to create token"
	ErrRetrievingUser       = "error retrieving user"
	ErrUserNotFound         = "user not found"
	ErrInvalidPassword      = "invalid password"
	ErrInvalidInput         = "invalid input"

	gravatarURL = "https://www.gravatar.com/avatar/%x.jpg?d=identicon"
)
