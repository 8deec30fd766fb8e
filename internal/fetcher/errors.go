// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFetchFatal matches failures that a later retry would not fix.
	ErrFetchFatal = errors.New("fetch failed permanently")
	// ErrFetchExhausted matches failures where every attempt was used up.
	ErrFetchExhausted = errors.New("fetch retries exhausted")
)

// Kind classifies a fetch failure.
type Kind int

const (
	KindAuthentication Kind = iota + 1
	KindNotFound
	KindClient
	KindServer
	KindTransport
	KindMalformedResponse
	KindRetriesExhausted
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not found"
	case KindClient:
		return "client error"
	case KindServer:
		return "server error"
	case KindTransport:
		return "transport error"
	case KindMalformedResponse:
		return "malformed response"
	case KindRetriesExhausted:
		return "retries exhausted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Retryable reports whether another attempt might succeed.
func (k Kind) Retryable() bool {
	return k == KindServer || k == KindTransport
}

// Fatal reports whether the kind ends the retry loop immediately.
func (k Kind) Fatal() bool {
	switch k {
	case KindAuthentication, KindNotFound, KindClient, KindMalformedResponse:
		return true
	}
	return false
}

// FetchError is the single error type Fetch returns for endpoint failures.
type FetchError struct {
	Kind       Kind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (HTTP %d)", e.StatusCode)
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&sb, " after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets callers test the category without caring about the exact kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetchFatal:
		return e.Kind.Fatal()
	case ErrFetchExhausted:
		return e.Kind == KindRetriesExhausted
	}
	return false
}

// KindOf extracts the kind from err, or 0 when err is not a *FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
