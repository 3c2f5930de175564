package adminauth

import (
	"fmt"
	"net/http"

	"github.com/essexfb/backend/srvcerror"
)

// There is one shared secret and no usernames, so the message has nothing
// to leak; it is still kept generic out of habit.
const ErrCodeInvalidPassword = "invalid_password"

func newErrInvalidPassword() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidPassword,
		"Invalid password",
	).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeSessionPersistence = "session_persistence_failure"

func newErrSessionPersistence(op string, err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionPersistence,
		"failed to save admin session, please log in again",
	).SetDebug(fmt.Errorf("%s: %w", op, err)).
		SetHttpStatusCode(http.StatusInternalServerError)
}

const ErrCodeNotAuthenticated = "not_authenticated"

func NewErrNotAuthenticated() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotAuthenticated,
		"admin session is missing or expired",
	).SetHttpStatusCode(http.StatusUnauthorized)
}
