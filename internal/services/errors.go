package services

import (
	"errors"
	"fmt"

	"github.com/prayershare/backend/pkg/utils"
)

var (
	// ErrNotFound means the referenced request or group does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is authenticated but is not a member
	// or owner of the thing they touched.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyResolved rejects a second resolution of the same request.
	ErrAlreadyResolved = errors.New("request already resolved")
	// ErrUserNotFound is the recoverable lookup miss of the add-member form.
	ErrUserNotFound = errors.New("user not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

func validateInput(in interface{}) error {
	if err := utils.ValidateStruct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return nil
}
