package service

import (
	"context"
	"strings"

	"nextfilm/internal/auth"
	"nextfilm/internal/cache"
	"nextfilm/internal/models"
	"nextfilm/internal/repository"
	"nextfilm/internal/storage"
	"nextfilm/internal/validation"
)

// UserService is the user directory: sign-up, profiles and the public user list.
type UserService struct {
	userRepo repository.UserRepository
	follows  *FollowService
	hasher   *auth.PasswordHasher
	media    *Media
	cache    *cache.Cache
}

type CreateUserInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Bio       string
	City      string
}

// UpdateProfileInput is a patch; nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID    uint
	FirstName *string
	LastName  *string
	Username  *string
	Email     *string
	Password  *string
	Bio       *string
	City      *string
	Avatar    *Image
}

func NewUserService(
	userRepo repository.UserRepository,
	follows *FollowService,
	hasher *auth.PasswordHasher,
	media *Media,
	c *cache.Cache,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		follows:  follows,
		hasher:   hasher,
		media:    media,
		cache:    c,
	}
}

// Create registers a user. Email and username are looked up independently so
// each collision reports its own message.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, in.Username); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Username:  in.Username,
		Email:     in.Email,
		Password:  digest,
		Bio:       in.Bio,
		City:      in.City,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.UserListKey)
	return user.Sanitize(), nil
}

func validateSignup(in CreateUserInput) error {
	checks := []error{
		validation.ValidateName("first_name", in.FirstName),
		validation.ValidateName("last_name", in.LastName),
		validation.ValidateUsername(in.Username),
		validation.ValidateEmail(in.Email),
		validation.ValidatePassword(in.Password),
		validation.ValidateBio(in.Bio),
	}
	for _, err := range checks {
		if err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError("Email already registered")
	}
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError("Username already registered")
	}
	return nil
}

// GetByID returns the sanitized user with a signed avatar URL, or NOT_FOUND.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, user), nil
}

// GetByEmail returns the sanitized user or NOT_FOUND.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User not found")
	}
	return s.present(ctx, user), nil
}

// GetByUsername returns the sanitized user or NOT_FOUND.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User not found")
	}
	return s.present(ctx, user), nil
}

// present signs the avatar, degrading to null, and strips the credential.
func (s *UserService) present(ctx context.Context, user *models.User) *models.User {
	user.AvatarURL = s.media.SignedURL(ctx, user.Avatar)
	return user.Sanitize()
}

// GetProfile returns id's profile as seen by viewerID (0 for anonymous).
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.UserProfile, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user}
	if viewerID != id {
		profile.Email = ""
	}
	if profile.IsFollowing, err = s.follows.IsFollowing(ctx, viewerID, id); err != nil {
		return nil, err
	}
	if profile.FollowersCount, err = s.follows.CountFollowers(ctx, id); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = s.follows.CountFollowing(ctx, id); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile merges the patch into the stored user. Uniqueness is only
// re-checked for an email or username that actually changes, and a supplied
// avatar always goes to a fresh path.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if email != user.Email {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != user.Username {
			if err := validation.ValidateUsername(username); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			if err := s.ensureUsernameFree(ctx, username); err != nil {
				return nil, err
			}
			user.Username = username
		}
	}
	if in.FirstName != nil {
		if err := validation.ValidateName("first_name", *in.FirstName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if err := validation.ValidateName("last_name", *in.LastName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = *in.Bio
	}
	if in.City != nil {
		user.City = *in.City
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = digest
	}

	var uploaded string
	if in.Avatar != nil {
		if uploaded, err = s.media.Upload(ctx, storage.CollectionAvatars, in.Avatar); err != nil {
			return nil, err
		}
		user.Avatar = uploaded
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if uploaded != "" {
			s.media.orphaned(ctx, uploaded, err)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.UserListKey)
	return s.present(ctx, user), nil
}

// List returns every user without credentials, served from the cache when possible.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.cache.Aside(ctx, "users", cache.UserListKey, &users, cache.UserListTTL, func() error {
		found, err := s.userRepo.List(ctx)
		if err != nil {
			return err
		}
		for i := range found {
			found[i].AvatarURL = s.media.SignedURL(ctx, found[i].Avatar)
			found[i].Public()
		}
		users = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
