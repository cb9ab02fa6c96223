// Package repository provides data access for the two tables the
// booking pipeline owns: tickets and notifications.  Sentinel errors
// defined here let handlers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// row owned by a different user, such as marking someone else's
// notification as read.  Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")
