package errs

import "errors"

var ErrNotFound = errors.New("not found")

var ErrAlreadyExists = errors.New("already exists")

var ErrInternal = errors.New("internal error")

var ErrNetworkUnavailable = errors.New("network unavailable")

var ErrStorageUnavailable = errors.New("data unavailable")

var ErrInvalidCredentials = errors.New("invalid credentials")

var ErrInvalidPrice = errors.New("invalid price")

var ErrNotSignedIn = errors.New("please sign in")

var ErrForbidden = errors.New("forbidden")

// ErrSchemaTooNew is returned when the database was written by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

var ErrInvalidInput = errors.New("invalid input")
