package services

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CodeFrontMatterInvalid = "FRONTMATTER_INVALID"
	CodeFormatUnsupported  = "FORMAT_UNSUPPORTED"
	CodeLoadCanceled       = "LOAD_CANCELED"
	CodeLoadFailed         = "LOAD_FAILED"
)

var (
	ErrNoFrontMatter     = errors.New("no front matter block")
	ErrUnclosedBlock     = errors.New("front matter block is not closed")
	ErrInvalidPath       = errors.New("path escapes the content directory")
	ErrPostExists        = errors.New("post already exists")
	ErrUnknownFormat     = errors.New("unsupported front matter format")
	ErrUnknownCollection = errors.New("unknown collection")
)

func validationError(err error, msg, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).WithTextCode(code)
}

func commandError(err error, msg, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "load cancelled").WithTextCode(CodeLoadCanceled)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, msg).WithTextCode(code)
	}
}

// IsValidationError reports whether err stems from bad user input.
func IsValidationError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}
