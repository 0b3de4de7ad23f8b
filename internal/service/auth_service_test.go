package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therebootai/democlinicsoftwarebackend/internal/config"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(repo UserRepository) *AuthService {
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars-long",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "dentity-test",
	})
	auditSvc := NewAuditService(&fakeAuditRepo{}, testCollector(), zap.NewNop())
	return NewAuthService(repo, jwtManager, auditSvc, zap.NewNop())
}

func registerCommand(designation string) *RegisterCommand {
	return &RegisterCommand{
		Name:        "Dr. Sen",
		Email:       "Sen@Clinic.Test",
		Phone:       "9000000001",
		Password:    "s3cret-pass",
		Role:        "doctor",
		Designation: designation,
	}
}

func TestRegisterAssignsDesignationPrefix(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	doctor, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)
	assert.Equal(t, "doctorId0001", doctor.UserID)
	assert.Equal(t, "sen@clinic.test", doctor.Email)

	staffCmd := registerCommand("Staff")
	staffCmd.Email = "desk@clinic.test"
	staffCmd.Phone = "9000000002"
	staff, err := svc.Register(context.Background(), staffCmd)
	require.NoError(t, err)
	// The staff series starts from 0001 regardless of how many doctors exist.
	assert.Equal(t, "staffId0001", staff.UserID)

	otherCmd := registerCommand("Receptionist")
	otherCmd.Email = "front@clinic.test"
	otherCmd.Phone = "9000000003"
	other, err := svc.Register(context.Background(), otherCmd)
	require.NoError(t, err)
	assert.Equal(t, "userId0001", other.UserID)
}

func TestRegisterFillsGapsWithinSeries(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["doctorId0001"] = &domain.User{UserID: "doctorId0001"}
	repo.users["doctorId0003"] = &domain.User{UserID: "doctorId0003"}
	svc := newTestAuthService(repo)

	u, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)
	assert.Equal(t, "doctorId0002", u.UserID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), &RegisterCommand{Password: "short"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name is required")
	assert.Contains(t, verr.Fields, "password must be at least 8 characters")
}

func TestRegisterPhoneOnlyAccountsDoNotCollide(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	first := registerCommand("Staff")
	first.Email = ""
	first.Phone = "9000000010"
	_, err := svc.Register(context.Background(), first)
	require.NoError(t, err)

	// A second account without an email must not trip the email
	// uniqueness constraint.
	second := registerCommand("Staff")
	second.Email = ""
	second.Phone = "9000000011"
	u, err := svc.Register(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "staffId0002", u.UserID)

	_, err = svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, domain.ErrDuplicateUser)
}

func TestLoginByEmailAndPhone(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	_, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)

	user, pair, err := svc.Login(context.Background(), "sen@clinic.test", "s3cret-pass", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "doctorId0001", user.UserID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	user, _, err = svc.Login(context.Background(), "9000000001", "s3cret-pass", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "doctorId0001", user.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	_, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "sen@clinic.test", "wrong-pass", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownAccount(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, _, err := svc.Login(context.Background(), "nobody@clinic.test", "whatever1", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	_, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), "sen@clinic.test", "s3cret-pass", "")
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token must not pass as a refresh token.
	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenDeletedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	u, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), "sen@clinic.test", "s3cret-pass", "")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), u.UserID))
	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	u, err := svc.Register(context.Background(), registerCommand("Doctor"))
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), u.UserID, "wrong-pass", "new-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), u.UserID, "s3cret-pass", "short")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.ChangePassword(context.Background(), u.UserID, "s3cret-pass", "new-password"))

	stored, err := repo.GetByUserID(context.Background(), u.UserID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")))
}

func TestListUsersFiltersByDesignation(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["doctorId0001"] = &domain.User{UserID: "doctorId0001", Designation: "Doctor"}
	repo.users["staffId0001"] = &domain.User{UserID: "staffId0001", Designation: "Staff"}
	svc := newTestAuthService(repo)

	all, err := svc.ListUsers(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	doctors, err := svc.ListUsers(context.Background(), "doctor")
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "doctorId0001", doctors[0].UserID)
}
