package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/models"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

type mockAuthRepo struct {
	users             map[string]*models.User
	findByEmailErr    error
	createErr         error
	updatePasswordErr error
	auditErr          error
	auditLogs         []*models.AuditLog
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = fmt.Sprintf("u%d", len(m.users)+1)
	user.RegistrationTimestamp = time.Now().UTC()
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if m.auditErr != nil {
		return m.auditErr
	}
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "secret",
		TokenExpiry: time.Hour,
		BcryptCost:  bcrypt.MinCost,
	})
}

func validRegistration() dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:    " Budi@Example.com ",
		Password: "rahasia",
		Nama:     "Budi",
		Pangkat:  "Serda",
		NRP:      "12345",
	}
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", user.Email)
	assert.False(t, user.IsApproved)
	assert.False(t, user.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("rahasia")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())

	req := validRegistration()
	req.NRP = "12A45"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "NRP hanya boleh berisi angka.", appErr.Message)

	req = validRegistration()
	req.Pangkat = "  "
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "Isian tidak lengkap.", appErrors.FromError(err).Message)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "budi@example.com"})
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrEmailTaken))
}

func TestAuthServiceRegisterUniqueViolationRace(t *testing.T) {
	repo := newMockAuthRepo()
	repo.createErr = fmt.Errorf("create user: %w", &pq.Error{Code: "23505"})
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.True(t, appErrors.Is(err, appErrors.ErrEmailTaken))
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashPassword(t, "password"), IsApproved: true, IsAdmin: true})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "password", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "u1", res.User.ID)
	assert.True(t, res.User.IsAdmin)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.IsAdmin)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, "127.0.0.1", repo.auditLogs[0].IPAddress)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	repo := newMockAuthRepo(
		&models.User{ID: "u1", Email: "approved@example.com", PasswordHash: hashPassword(t, "password"), IsApproved: true},
		&models.User{ID: "u2", Email: "pending@example.com", PasswordHash: hashPassword(t, "password")},
	)
	svc := newTestAuthService(repo)

	cases := []struct {
		name     string
		email    string
		password string
		want     *appErrors.Error
	}{
		{name: "unknown email", email: "nobody@example.com", password: "password", want: appErrors.ErrInvalidCredentials},
		{name: "wrong password", email: "approved@example.com", password: "nope", want: appErrors.ErrInvalidCredentials},
		{name: "pending account", email: "pending@example.com", password: "password", want: appErrors.ErrAccountPending},
		{name: "pending account wrong password", email: "pending@example.com", password: "nope", want: appErrors.ErrInvalidCredentials},
		{name: "missing password", email: "approved@example.com", password: "", want: appErrors.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), dto.LoginRequest{Email: tc.email, Password: tc.password})
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.want.Code, appErr.Code)
			assert.Equal(t, tc.want.Status, appErr.Status)
		})
	}
}

func TestAuthServiceLoginIgnoresAuditFailure(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashPassword(t, "password"), IsApproved: true})
	repo.auditErr = fmt.Errorf("audit down")
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), dto.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestAuthServiceMe(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "user@example.com"})
	svc := newTestAuthService(repo)

	user, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = svc.Me(context.Background(), "gone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", PasswordHash: hashPassword(t, "old")})
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", dto.ChangePasswordRequest{OldPassword: "old", NewPassword: "baru", ConfirmNewPassword: "baru"}, RequestMeta{})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u1"].PasswordHash), []byte("baru")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionPasswordChange, repo.auditLogs[0].Action)
}

func TestAuthServiceChangePasswordFailures(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", PasswordHash: hashPassword(t, "old")})
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", dto.ChangePasswordRequest{OldPassword: "old", NewPassword: "baru", ConfirmNewPassword: "lain"}, RequestMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Password baru dan konfirmasi tidak cocok.", appErr.Message)

	err = svc.ChangePassword(context.Background(), "u1", dto.ChangePasswordRequest{OldPassword: "salah", NewPassword: "baru", ConfirmNewPassword: "baru"}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)

	err = svc.ChangePassword(context.Background(), "u1", dto.ChangePasswordRequest{OldPassword: "old"}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())
	user := &models.User{ID: "u1", IsAdmin: false}
	token, err := svc.generateToken(user, time.Now())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.False(t, claims.IsAdmin)

	_, err = svc.ValidateToken(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())
	token, err := svc.generateToken(&models.User{ID: "u1"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}
