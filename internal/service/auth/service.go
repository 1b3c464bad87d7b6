package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
)

// Claims is the JWT payload issued at login. The role and branch travel in
// the token so every request carries its own authorization context.
type Claims struct {
	Name   string        `json:"name"`
	Role   models.Role   `json:"role"`
	Branch models.Branch `json:"branch"`
	jwt.RegisteredClaims
}

// Service handles credential verification, token issue/verify and
// director-only user administration.
type Service struct {
	repo   mongodb.Repository
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewService wires the auth service. ttl bounds how long issued tokens stay
// valid.
func NewService(repo mongodb.Repository, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl, logger: logger}
}

// Login verifies email and password and returns the user with a signed
// token. Unknown email and wrong password produce the same error so the
// response never reveals which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	if email == "" || password == "" {
		v := &models.ValidationError{}
		if email == "" {
			v.Add("email", "is required")
		}
		if password == "" {
			v.Add("password", "is required")
		}
		return models.User{}, "", v
	}

	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrUserNotFound) {
		return models.User{}, "", models.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("failed login attempt", zap.String("email", user.Email))
		return models.User{}, "", models.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.String("branch", string(user.Branch)))
	return user, token, nil
}

func (s *Service) issueToken(user models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:   user.Name,
		Role:   user.Role,
		Branch: user.Branch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken parses and validates a bearer token, returning the actor it
// represents.
func (s *Service) VerifyToken(tokenString string) (models.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	return models.Actor{
		ID:     claims.Subject,
		Name:   claims.Name,
		Role:   claims.Role,
		Branch: claims.Branch,
	}, nil
}

// ListUsers returns every account, for directors only.
func (s *Service) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if !models.Allowed(actor.Role, models.OpManageUsers) {
		return nil, models.ErrForbidden
	}
	return s.repo.ListUsers(ctx)
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, actor models.Actor, req models.UserRequest) (models.User, error) {
	if !models.Allowed(actor.Role, models.OpManageUsers) {
		return models.User{}, models.ErrForbidden
	}
	if err := req.Validate(true); err != nil {
		return models.User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return models.User{}, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.repo.InsertUser(ctx, models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Branch:       req.Branch,
		Contact:      req.Contact,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("user created",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.String("created_by", actor.Name))
	return user, nil
}

// UpdateUser modifies an account. The password is only rehashed when a new
// one is supplied.
func (s *Service) UpdateUser(ctx context.Context, actor models.Actor, id string, req models.UserRequest) (models.User, error) {
	if !models.Allowed(actor.Role, models.OpManageUsers) {
		return models.User{}, models.ErrForbidden
	}
	if err := req.Validate(false); err != nil {
		return models.User{}, err
	}

	existing, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Email = strings.ToLower(strings.TrimSpace(req.Email))
	existing.Role = req.Role
	existing.Branch = req.Branch
	existing.Contact = req.Contact
	existing.PasswordHash = ""
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		existing.PasswordHash = string(hash)
	}

	return s.repo.UpdateUser(ctx, existing)
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, actor models.Actor, id string) error {
	if !models.Allowed(actor.Role, models.OpManageUsers) {
		return models.ErrForbidden
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("deleted_by", actor.Name))
	return nil
}
