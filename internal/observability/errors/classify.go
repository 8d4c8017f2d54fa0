// Package errors derives low-cardinality error classes for metric tags and alerts.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

// Classify returns a short class for err:
//
//	resolution_<store>   a directory store failed while resolving a role
//	auth_<code>          a login failure with its AuthErrorCode
//	timeout, canceled    context expiry anywhere in the chain
//	store_unavailable    a bare store outage
//
// Anything else is named after the innermost wrapped error's type, in snake case.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var resErr *domainauth.ResolutionError
	if goerrors.As(err, &resErr) && resErr.Store != "" {
		return "resolution_" + snake(resErr.Store)
	}
	var authErr *domainauth.AuthError
	if goerrors.As(err, &authErr) && authErr.Code != "" {
		return "auth_" + snake(string(authErr.Code))
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, domainauth.ErrStoreUnavailable):
		return "store_unavailable"
	}
	return typeName(err)
}

func typeName(err error) string {
	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return snake(t.String())
}

func snake(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(".", "_", "-", "_", " ", "_", "*", "").Replace(s)
}
