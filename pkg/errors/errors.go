package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Messages are the Indonesian copy
// shown to end users.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Email atau password salah.")
	ErrAccountPending     = New("ACCOUNT_PENDING", http.StatusForbidden, "Akun Anda belum disetujui admin atau telah dinonaktifkan.")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "Data tidak ditemukan.")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "Akses ditolak.")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "Token tidak valid atau sudah kedaluwarsa.")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "Isian tidak lengkap.")
	ErrEmailTaken         = New("EMAIL_TAKEN", http.StatusBadRequest, "Email sudah terdaftar.")
	ErrUserHasDocuments   = New("USER_HAS_DOCUMENTS", http.StatusBadRequest, "Pengguna tidak dapat dihapus karena masih memiliki dokumen terkait.")
	ErrFileTooLarge       = New("FILE_TOO_LARGE", http.StatusRequestEntityTooLarge, "Ukuran file melebihi batas yang diizinkan.")
	ErrRateLimited        = New("RATE_LIMITED", http.StatusTooManyRequests, "Terlalu banyak permintaan, coba lagi nanti.")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "Terjadi kesalahan pada server.")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == target.Code
	}
	return false
}
