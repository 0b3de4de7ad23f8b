package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUserID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]*domain.User, error)
	Replace(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	Delete(ctx context.Context, userID string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		auditSvc:   auditSvc,
		log:        log,
	}
}

type RegisterCommand struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Password     string   `json:"password"`
	Role         string   `json:"role"`
	Designation  string   `json:"designation"`
	DoctorDegree string   `json:"doctorDegree"`
	ClinicIDs    []string `json:"clinicId"`
}

// Register creates a staff account. The user code prefix follows the
// designation: doctors get doctorId####, staff staffId####, everyone
// else userId####.
func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand) (*domain.User, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing user ids: %w", err)
	}

	prefix := domain.Designation(cmd.Designation).CodePrefix()
	userID := serial.Next(filterByPrefix(existing, prefix), prefix)

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		UserID:       userID,
		Name:         strings.TrimSpace(cmd.Name),
		Email:        strings.ToLower(strings.TrimSpace(cmd.Email)),
		Phone:        strings.TrimSpace(cmd.Phone),
		PasswordHash: string(hash),
		Role:         domain.Role(cmd.Role),
		Designation:  cmd.Designation,
		DoctorDegree: cmd.DoctorDegree,
		ClinicIDs:    cmd.ClinicIDs,
	}
	now := timeNow()
	u.CreatedAt, u.UpdatedAt = now, now

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.String("user_id", u.UserID),
		zap.String("designation", u.Designation),
	)

	return u, nil
}

// Login accepts either an email address or a phone number as the
// identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password, ip string) (*domain.User, *domain.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.GetByPhone(ctx, identifier)
	}
	if err != nil {
		// Burn a bcrypt round so response timing does not reveal whether
		// the account exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("identifier", identifier),
			zap.String("ip", ip),
		)
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokenPairFor(user)
	if err != nil {
		return nil, nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.UserID,
		UserRole:     string(user.Role),
		Action:       "login",
		ResourceType: "user",
		ResourceID:   user.UserID,
		IPAddress:    ip,
	})

	s.log.Info("user logged in", zap.String("user_id", user.UserID), zap.String("ip", ip))

	return user, pair, nil
}

// RefreshToken issues a new token pair given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate the account still exists.
	user, err := s.userRepo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.tokenPairFor(user)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if len(newPassword) < 8 {
		return &ValidationError{Fields: []string{"password must be at least 8 characters"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// ListUsers returns all accounts, optionally filtered by designation.
func (s *AuthService) ListUsers(ctx context.Context, designation string) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if designation == "" {
		return users, nil
	}
	filtered := users[:0]
	for _, u := range users {
		if strings.EqualFold(u.Designation, designation) {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetByUserID(ctx, userID)
}

func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	return s.userRepo.Delete(ctx, userID)
}

func (s *AuthService) tokenPairFor(user *domain.User) (*domain.TokenPair, error) {
	pair, err := s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:      user.UserID,
		Email:       user.Email,
		Role:        user.Role,
		Designation: user.Designation,
	})
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

func validateRegisterCommand(cmd *RegisterCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(cmd.Email) == "" && strings.TrimSpace(cmd.Phone) == "" {
		errs = append(errs, "email or phone is required")
	}
	if len(cmd.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	if strings.TrimSpace(cmd.Designation) == "" {
		errs = append(errs, "designation is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// filterByPrefix keeps only the IDs of one designation series; the three
// series share the users collection.
func filterByPrefix(ids []string, prefix string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := serial.Parse(id, prefix); ok {
			out = append(out, id)
		}
	}
	return out
}
