package service

import (
	"errors"
	"time"

	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func orSystemClock(clock Clock) Clock {
	if clock == nil {
		return systemClock
	}
	return clock
}

// mapRepoError turns repository sentinels into caller-facing errors.
func mapRepoError(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}
