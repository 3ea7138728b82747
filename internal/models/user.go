package models

import "time"

// User represents an application user stored in the users table.
type User struct {
	ID                    string    `db:"user_id" json:"user_id"`
	Email                 string    `db:"email" json:"email"`
	PasswordHash          string    `db:"password_hash" json:"-"`
	Nama                  string    `db:"nama" json:"nama"`
	Pangkat               string    `db:"pangkat" json:"pangkat"`
	NRP                   string    `db:"nrp" json:"nrp"`
	IsAdmin               bool      `db:"is_admin" json:"is_admin"`
	IsApproved            bool      `db:"is_approved" json:"is_approved"`
	RegistrationTimestamp time.Time `db:"registration_timestamp" json:"registration_timestamp"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives the page count from the total row count.
func NewPagination(page, pageSize, total int) *Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}
}
