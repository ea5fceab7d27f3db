package graph

import (
	"context"

	"github.com/go-viper/mapstructure/v2"

	"github.com/haguru/notedly/internal/apperrors"
	"github.com/haguru/notedly/internal/auth"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/models/dto"
)

const helloWorld = "Hello World!"

// Resolver connects schema fields to the services.
type Resolver struct {
	Users interfaces.UserService
	Notes interfaces.NoteService
}

func NewResolver(users interfaces.UserService, notes interfaces.NoteService) *Resolver {
	return &Resolver{Users: users, Notes: notes}
}

// decodeArgs copies field arguments into a DTO by its mapstructure tags.
func decodeArgs(args map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return apperrors.Internal(ErrInvalidArguments, err)
	}
	if err := decoder.Decode(args); err != nil {
		return apperrors.InvalidInput(ErrInvalidArguments, err)
	}
	return nil
}

func (r *Resolver) fieldResolvers() map[string]map[string]FieldResolver {
	return map[string]map[string]FieldResolver{
		"Query":    r.queryResolvers(),
		"Mutation": r.mutationResolvers(),
		"Note":     r.noteResolvers(),
		"User":     r.userResolvers(),
		"NoteFeed": noteFeedResolvers(),
	}
}

func (r *Resolver) queryResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"hello": func(context.Context, interface{}, map[string]interface{}) (interface{}, error) {
			return helloWorld, nil
		},
		"notes": func(ctx context.Context, _ interface{}, _ map[string]interface{}) (interface{}, error) {
			return r.Notes.ListNotes(ctx)
		},
		"note": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.NoteIDInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Notes.GetNote(ctx, input.ID)
		},
		"noteFeed": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.NoteFeedInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Notes.NoteFeed(ctx, input.Cursor)
		},
		"user": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.UserLookupInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Users.GetUserByUsername(ctx, input.Username)
		},
		"users": func(ctx context.Context, _ interface{}, _ map[string]interface{}) (interface{}, error) {
			return r.Users.ListUsers(ctx)
		},
		"me": func(ctx context.Context, _ interface{}, _ map[string]interface{}) (interface{}, error) {
			callerID := auth.UserIDFromContext(ctx)
			if callerID == "" {
				return nil, apperrors.Unauthenticated(ErrNotSignedIn)
			}
			user, err := r.Users.GetUser(ctx, callerID)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, apperrors.Unauthenticated(ErrNotSignedIn)
			}
			return user, nil
		},
	}
}

func (r *Resolver) mutationResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"newNote": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.NewNoteInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Notes.CreateNote(ctx, auth.UserIDFromContext(ctx), input)
		},
		"updateNote": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.UpdateNoteInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Notes.UpdateNote(ctx, auth.UserIDFromContext(ctx), input)
		},
		"deleteNote": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.NoteIDInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Notes.DeleteNote(ctx, auth.UserIDFromContext(ctx), input.ID)
		},
		"toggleFavorite": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.NoteIDInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Notes.ToggleFavorite(ctx, auth.UserIDFromContext(ctx), input.ID)
		},
		"signUp": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.SignUpInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Users.SignUp(ctx, input)
		},
		"signIn": func(ctx context.Context, _ interface{}, args map[string]interface{}) (interface{}, error) {
			var input dto.SignInInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return r.Users.SignIn(ctx, input)
		},
	}
}

func (r *Resolver) noteResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"id":            noteField(func(n *models.Note) interface{} { return n.ID }),
		"content":       noteField(func(n *models.Note) interface{} { return n.Content }),
		"favoriteCount": noteField(func(n *models.Note) interface{} { return n.FavoriteCount }),
		"createdAt":     noteField(func(n *models.Note) interface{} { return n.CreatedAt }),
		"updatedAt":     noteField(func(n *models.Note) interface{} { return n.UpdatedAt }),
		"author": func(ctx context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
			return r.Users.GetUser(ctx, parent.(*models.Note).AuthorID)
		},
		"favoritedBy": func(ctx context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
			return r.Users.GetUsersByIDs(ctx, parent.(*models.Note).FavoritedBy)
		},
	}
}

func (r *Resolver) userResolvers() map[string]FieldResolver {
	return map[string]FieldResolver{
		"id":       userField(func(u *models.User) interface{} { return u.ID }),
		"username": userField(func(u *models.User) interface{} { return u.Username }),
		"email":    userField(func(u *models.User) interface{} { return u.Email }),
		"avatar":   userField(func(u *models.User) interface{} { return u.Avatar }),
		"notes": func(ctx context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
			return r.Notes.ListNotesByAuthor(ctx, parent.(*models.User).ID)
		},
		"favorites": func(ctx context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
			return r.Notes.ListFavoritesByUser(ctx, parent.(*models.User).ID)
		},
	}
}

func noteFeedResolvers() map[string]FieldResolver {
	feedField := func(get func(*models.NoteFeed) interface{}) FieldResolver {
		return func(_ context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
			return get(parent.(*models.NoteFeed)), nil
		}
	}
	return map[string]FieldResolver{
		"notes":       feedField(func(f *models.NoteFeed) interface{} { return f.Notes }),
		"cursor":      feedField(func(f *models.NoteFeed) interface{} { return f.Cursor }),
		"hasNextPage": feedField(func(f *models.NoteFeed) interface{} { return f.HasNextPage }),
	}
}

func noteField(get func(*models.Note) interface{}) FieldResolver {
	return func(_ context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
		return get(parent.(*models.Note)), nil
	}
}

func userField(get func(*models.User) interface{}) FieldResolver {
	return func(_ context.Context, parent interface{}, _ map[string]interface{}) (interface{}, error) {
		return get(parent.(*models.User)), nil
	}
}
