package service

import (
	"errors"
	"unicode/utf8"

	"github.com/chronos-io/chronos-ce/internal/repository"
	"github.com/chronos-io/chronos-ce/internal/utils"
)

const (
	maxDescriptionLen  = 500
	maxTemplateNameLen = 100
)

// cleanDescription sanitizes and length-checks a description field. Limits
// count characters, not bytes.
func cleanDescription(s string) (string, error) {
	s = utils.SanitizeText(s)
	if utf8.RuneCountInString(s) > maxDescriptionLen {
		return "", validationErr("description", "must be at most 500 characters")
	}
	return s, nil
}

// translateRefErr maps repository reference sentinels onto domain kinds;
// other errors pass through untouched.
func translateRefErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidProjectRef):
		return wrapDomain(KindInvalidProjectID, "project reference does not resolve", err)
	case errors.Is(err, repository.ErrInvalidCategoryRef):
		return wrapDomain(KindInvalidCategoryID, "category reference does not resolve", err)
	default:
		return err
	}
}
