package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	oauth2v2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/token"
	"github.com/varunaditya27/EduSynth/repository"
)

type AuthService struct {
	repo   repository.Repository
	tokens *token.Manager
}

func NewAuthService(repo repository.Repository, tokens *token.Manager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

func (s *AuthService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.New(apperr.KindUnauthorized, "BAD_CREDENTIALS", "invalid email or password")
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		// Google-only account.
		return nil, apperr.New(apperr.KindUnauthorized, "BAD_CREDENTIALS", "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "BAD_CREDENTIALS", "invalid email or password")
	}

	return s.issue(user)
}

// GoogleAuth verifies a Google ID token with the tokeninfo endpoint and signs
// the user in, creating the account on first sight.
func (s *AuthService) GoogleAuth(ctx context.Context, req dto.GoogleAuthRequest) (*dto.AuthResponse, error) {
	svc, err := oauth2v2.NewService(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}

	info, err := svc.Tokeninfo().IdToken(req.IDToken).Context(ctx).Do()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "BAD_GOOGLE_TOKEN", err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, apperr.New(apperr.KindUnauthorized, "BAD_GOOGLE_TOKEN", "google token has no verified email")
	}

	user, err := s.repo.FindUserByEmail(ctx, info.Email)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		user = &entities.User{
			ID:    uuid.New(),
			Email: info.Email,
			Name:  info.Email,
		}
		if createErr := s.repo.CreateUser(ctx, user); createErr != nil {
			return nil, createErr
		}
	}

	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := userResponse(user)
	return &resp, nil
}

func (s *AuthService) issue(user *entities.User) (*dto.AuthResponse, error) {
	accessToken, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		User:        userResponse(user),
	}, nil
}

func userResponse(user *entities.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}
