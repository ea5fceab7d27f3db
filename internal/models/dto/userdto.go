package dto

// SignUpInput carries the signUp mutation arguments.
type SignUpInput struct {
	Username string `mapstructure:"username" validate:"required,min=1,max=64"`
	Email    string `mapstructure:"email" validate:"required,email,max=254"`
	Password string `mapstructure:"password" validate:"required,min=6,max=72"`
}

// SignInInput carries the signIn mutation arguments. Email takes precedence
// over Username when both are given.
type SignInInput struct {
	Username string `mapstructure:"username" validate:"max=64"`
	Email    string `mapstructure:"email" validate:"omitempty,email,max=254"`
	Password string `mapstructure:"password" validate:"required,max=72"`
}

// UserLookupInput carries the user query arguments.
type UserLookupInput struct {
	Username string `mapstructure:"username" validate:"required,max=64"`
}
