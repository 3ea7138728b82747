package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/middleware"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/internal/service"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

type responseEnvelope struct {
	Data    map[string]interface{} `json:"data"`
	Message string                 `json:"message"`
	Meta    map[string]interface{} `json:"meta"`
	Error   *appErrors.Error       `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
	}
}

type fakeAuthService struct {
	registered dto.RegisterRequest
	login      dto.LoginRequest
	changed    dto.ChangePasswordRequest
	err        error
}

func (f *fakeAuthService) Register(_ context.Context, req dto.RegisterRequest) (*models.User, error) {
	f.registered = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-1", Email: req.Email, PasswordHash: "secret-hash"}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req dto.LoginRequest) (*models.LoginResponse, error) {
	f.login = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{Token: "jwt"}, nil
}

func (f *fakeAuthService) Me(_ context.Context, userID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: userID, Nama: "Budi"}, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, _ string, req dto.ChangePasswordRequest, _ service.RequestMeta) error {
	f.changed = req
	return f.err
}

func authRouter(svc *fakeAuthService, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", withClaims(claims), h.Me)
	r.POST("/auth/change-password", withClaims(claims), h.ChangePassword)
	return r
}

func TestAuthHandlerRegister(t *testing.T) {
	svc := &fakeAuthService{}
	r := authRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"email":"a@b.c","password":"x","nama":"A","pangkat":"Mayor","nrp":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Pendaftaran berhasil! Akun Anda menunggu persetujuan admin.", envelope.Message)
	assert.Equal(t, "a@b.c", envelope.Data["email"])
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	assert.Equal(t, "test-agent", svc.registered.UserAgent)
	assert.Equal(t, "123", svc.registered.NRP)
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &fakeAuthService{}
	r := authRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`not json`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email dan password wajib diisi.", decodeEnvelope(t, rec).Error.Message)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.c","password":"x"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jwt", decodeEnvelope(t, rec).Data["token"])
	assert.Equal(t, "a@b.c", svc.login.Email)

	svc.err = appErrors.ErrAccountPending
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.c","password":"x"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_PENDING", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerMeAndChangePassword(t *testing.T) {
	svc := &fakeAuthService{}
	r := authRouter(svc, &models.JWTClaims{UserID: "u-7"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-7", decodeEnvelope(t, rec).Data["user_id"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/change-password", bytes.NewBufferString(`{"oldPassword":"a","newPassword":"b","confirmNewPassword":"b"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", svc.changed.ConfirmNewPassword)

	rec = httptest.NewRecorder()
	authRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeUserAdminService struct {
	role      dto.SetRoleRequest
	deleteErr error
}

func (f *fakeUserAdminService) List(context.Context) ([]models.User, error) {
	return []models.User{{ID: "u-1"}}, nil
}

func (f *fakeUserAdminService) Approve(_ context.Context, _ *models.JWTClaims, id string, _ service.RequestMeta) (*models.User, error) {
	return &models.User{ID: id, IsApproved: true}, nil
}

func (f *fakeUserAdminService) Revoke(_ context.Context, _ *models.JWTClaims, id string, _ service.RequestMeta) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserAdminService) SetRole(_ context.Context, _ *models.JWTClaims, id string, req dto.SetRoleRequest, _ service.RequestMeta) (*models.User, error) {
	f.role = req
	return &models.User{ID: id, IsAdmin: *req.IsAdmin}, nil
}

func (f *fakeUserAdminService) Delete(context.Context, *models.JWTClaims, string, service.RequestMeta) error {
	return f.deleteErr
}

func userRouter(svc *fakeUserAdminService, exposeErrors bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc, exposeErrors)
	r := gin.New()
	r.Use(withClaims(&models.JWTClaims{UserID: "admin", IsAdmin: true}))
	r.GET("/admin/users", h.List)
	r.PUT("/admin/users/:id/approve", h.Approve)
	r.PUT("/admin/users/:id/role", h.SetRole)
	r.DELETE("/admin/users/:id", h.Delete)
	return r
}

func TestUserHandlerSetRole(t *testing.T) {
	svc := &fakeUserAdminService{}
	r := userRouter(svc, false)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/users/u-2/role", bytes.NewBufferString(`{"isAdmin":"yes"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Nilai isAdmin harus berupa boolean.", decodeEnvelope(t, rec).Error.Message)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/users/u-2/role", bytes.NewBufferString(`{"isAdmin":true}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.role.IsAdmin)
	assert.True(t, *svc.role.IsAdmin)
	assert.Equal(t, true, decodeEnvelope(t, rec).Data["is_admin"])
}

func TestUserHandlerDeleteErrorDetail(t *testing.T) {
	svc := &fakeUserAdminService{deleteErr: appErrors.Wrap(errors.New("pq: deadlock detected"), appErrors.ErrInternal.Code, 500, "Gagal menghapus pengguna.")}

	rec := httptest.NewRecorder()
	userRouter(svc, true).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/users/u-2", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "pq: deadlock detected", decodeEnvelope(t, rec).Meta["detail"])

	rec = httptest.NewRecorder()
	userRouter(svc, false).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/users/u-2", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadlock")

	svc.deleteErr = nil
	rec = httptest.NewRecorder()
	userRouter(svc, false).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/users/u-2", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeStatsService struct {
	isAdmin bool
	hit     bool
	err     error
}

func (f *fakeStatsService) CountCurrentMonth(_ context.Context, isAdmin bool) (*models.CurrentMonthCount, bool, error) {
	f.isAdmin = isAdmin
	return &models.CurrentMonthCount{Count: 4}, f.hit, f.err
}

func (f *fakeStatsService) MonthlyUploads(_ context.Context, isAdmin bool) (*models.MonthlyUploads, bool, error) {
	f.isAdmin = isAdmin
	return &models.MonthlyUploads{Stats: []models.MonthlyUpload{}}, f.hit, f.err
}

func (f *fakeStatsService) Summary(_ context.Context, isAdmin bool) (*models.DocumentSummary, bool, error) {
	f.isAdmin = isAdmin
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.DocumentSummary{TotalDocuments: 9}, f.hit, nil
}

func TestStatsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeStatsService{hit: true}
	h := NewStatsHandler(svc)
	r := gin.New()
	r.Use(middleware.WithResponseMeta(), withClaims(&models.JWTClaims{UserID: "a", IsAdmin: true}))
	r.GET("/count", h.CountCurrentMonth)
	r.GET("/monthly", h.MonthlyUploads)
	r.GET("/summary", h.Summary)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/count", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4), envelope.Data["count"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.True(t, svc.isAdmin)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decodeEnvelope(t, rec).Data["totalDocuments"])

	svc.err = errors.New("db down")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeSignedOpener struct {
	download *service.FileDownload
	err      error
}

func (f *fakeSignedOpener) OpenSigned(context.Context, string) (*service.FileDownload, error) {
	return f.download, f.err
}

func TestFileHandlerSigned(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)

	opener := &fakeSignedOpener{download: &service.FileDownload{File: f, Filename: "a.png", ContentType: "image/png", Size: 3, Disposition: "attachment"}}
	r := gin.New()
	r.GET("/files/:token", NewFileHandler(opener).Signed)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/tok", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=a.png", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "png", rec.Body.String())

	opener.err = appErrors.ErrUnauthorized
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/tok", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func checkResult(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", NewMetricsHandler(nil,
		Dependency{Name: "postgres", Check: checkResult(nil)},
		Dependency{Name: "redis", Optional: true, Check: checkResult(errors.New("refused"))},
	).Ready)
	r.GET("/not-ready", NewMetricsHandler(nil, Dependency{Name: "postgres", Check: checkResult(errors.New("down"))}).Ready)
	r.GET("/health", NewMetricsHandler(nil).Health)
	r.GET("/metrics", NewMetricsHandler(service.NewMetricsService()).Prometheus)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"up","redis":"down"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/not-ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unavailable"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
