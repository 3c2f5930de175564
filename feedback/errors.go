package feedback

import (
	"fmt"
	"net/http"

	"github.com/essexfb/backend/srvcerror"
)

const ErrCodePersistenceFailure = "persistence_failure"

func newErrPersistenceFailure(op string, err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodePersistenceFailure,
		"failed to save feedback data, please try again",
	).SetDebug(fmt.Errorf("%s: %w", op, err)).
		SetHttpStatusCode(http.StatusInternalServerError)
}

const ErrCodeNothingToClear = "nothing_to_clear"

func newErrNothingToClear() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNothingToClear,
		"there are no submissions to clear",
	).SetHttpStatusCode(http.StatusConflict)
}
