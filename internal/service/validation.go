package service

import (
	"errors"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

var fieldMessages = map[string]string{
	"NRP.number":       "NRP hanya boleh berisi angka.",
	"Email.email":      "Format email tidak valid.",
	"Month.min":        "Bulan harus di antara 1 dan 12.",
	"Month.max":        "Bulan harus di antara 1 dan 12.",
	"Year.min":         "Tahun tidak valid.",
	"Year.max":         "Tahun tidak valid.",
	"Page.min":         "Halaman harus lebih dari 0.",
	"Limit.min":        "Limit harus lebih dari 0.",
	"IsAdmin.required": "Nilai isAdmin harus berupa boolean.",
}

// validationError converts validator failures into a 400 with a localized
// message for the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		if msg, ok := fieldMessages[first.Field()+"."+first.Tag()]; ok {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}
