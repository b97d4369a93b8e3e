package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DeepLinkPrefix starts the /start argument Pocket redirects back with.
const DeepLinkPrefix = "authorizationFinished_"

// DeepLink is a parsed authorization-finished start argument.
type DeepLink struct {
	UserID UserID
}

// String encodes the deep link as a /start argument.
func (d DeepLink) String() string {
	return DeepLinkPrefix + d.UserID.String()
}

// ParseDeepLink parses a /start argument.
//
// It returns ok=false when args do not carry the deep-link prefix (a plain
// start). A prefixed argument whose suffix is not a decimal int64 yields
// ErrMalformedDeepLink.
func ParseDeepLink(args string) (link DeepLink, ok bool, err error) {
	args = strings.TrimSpace(args)
	suffix, found := strings.CutPrefix(args, DeepLinkPrefix)
	if !found {
		return DeepLink{}, false, nil
	}
	if strings.HasPrefix(suffix, "+") {
		return DeepLink{}, true, fmt.Errorf("%w: %q", ErrMalformedDeepLink, args)
	}
	id, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return DeepLink{}, true, fmt.Errorf("%w: %q", ErrMalformedDeepLink, args)
	}
	return DeepLink{UserID: UserID(id)}, true, nil
}
