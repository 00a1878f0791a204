package service

import (
	"context"
	"strings"

	"jamsesh/internal/models"
	"jamsesh/internal/repository"
	"jamsesh/internal/validation"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

// UpdateProfileInput carries the editable profile fields. Nil fields are left
// unchanged; an empty Bio or AvatarURL clears it.
type UpdateProfileInput struct {
	Username  *string      `json:"username"`
	Bio       *string      `json:"bio"`
	AvatarURL *string      `json:"avatar_url"`
	Tags      *models.Tags `json:"tags"`
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	return s.profileRepo.GetByID(ctx, userID)
}

func optional(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// Update saves every provided field in one write.
func (s *ProfileService) Update(ctx context.Context, userID uint, in UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Username = username
	}
	if in.Bio != nil {
		profile.Bio = optional(in.Bio)
	}
	if in.AvatarURL != nil {
		profile.AvatarURL = optional(in.AvatarURL)
	}
	if in.Tags != nil {
		for _, tag := range *in.Tags {
			if err := validation.ValidateTag(tag); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
		}
		profile.Tags = in.Tags.Normalize()
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// AddTag adds tag unless an identical string is already present.
func (s *ProfileService) AddTag(ctx context.Context, userID uint, tag string) (*models.Profile, error) {
	if err := validation.ValidateTag(tag); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Tags.Contains(tag) {
		return profile, nil
	}
	profile.Tags = profile.Tags.Add(tag)
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RemoveTag drops tag if present.
func (s *ProfileService) RemoveTag(ctx context.Context, userID uint, tag string) (*models.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.Tags.Contains(tag) {
		return profile, nil
	}
	profile.Tags = profile.Tags.Remove(tag)
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetAvatar points the profile at an uploaded image.
func (s *ProfileService) SetAvatar(ctx context.Context, userID uint, url string) (*models.Profile, error) {
	return s.Update(ctx, userID, UpdateProfileInput{AvatarURL: &url})
}
