// Package repository implements the persistence layer on MySQL via
// database/sql. This file defines sentinel errors reused across
// repositories so handlers can map failure scenarios onto HTTP
// statuses with errors.Is instead of string matching.
package repository

import "errors"

// ErrSessionNotFound is returned when a session ID does not exist.
// Handlers translate it into a 404 response.
var ErrSessionNotFound = errors.New("session not found")

// ErrMemberNotFound is returned when a member ID or email does not
// exist. Handlers translate it into a 404 (or 401 for logins).
var ErrMemberNotFound = errors.New("member not found")

// ErrEmailExists is returned when registration hits the unique email
// index. Handlers translate it into a 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrSessionOverlap is returned when creating or updating a session
// whose active time range would overlap another active session. The
// slot resolver resolves overlaps deterministically, but the catalog
// boundary refuses to create them. Handlers translate it into 409.
var ErrSessionOverlap = errors.New("session overlaps an existing active session")

// ErrConflict is returned when a delete cannot proceed because
// dependent records exist, such as removing a session that already
// has admission history. Handlers translate it into a 409 response.
var ErrConflict = errors.New("conflict")
