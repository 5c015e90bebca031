// Package registration describes the state of a shopper's applications for
// the marketplace roles that require approval.
package registration

import "github.com/go-faster/errors"

// Role enumerates the marketplace roles a user may register for.
type Role string

const (
	RoleSeller   Role = "seller"
	RoleWorker   Role = "worker"
	RoleEmployer Role = "employer"
)

// Roles lists every role in display order.
var Roles = []Role{RoleSeller, RoleWorker, RoleEmployer}

// ErrUnknownRole is returned by ParseRole for names outside Roles.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	for _, r := range Roles {
		if string(r) == name {
			return r, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownRole, "%q", name)
}

// Status is the review state of a role application.
type Status string

const (
	// StatusUnregistered means no application has been submitted.
	StatusUnregistered Status = "unregistered"
	// StatusPending means the application awaits review.
	StatusPending Status = "pending"
	// StatusDeclined means the application was rejected.
	StatusDeclined Status = "declined"
	// StatusVerified means the application was approved.
	StatusVerified Status = "verified"
)

// CanAccessDashboard reports whether the role dashboard may be shown.
func (s Status) CanAccessDashboard() bool {
	return s == StatusVerified
}

// CanSubmitApplication reports whether a new application may be filed.
// Declined applicants may resubmit.
func (s Status) CanSubmitApplication() bool {
	return s == StatusUnregistered || s == StatusDeclined
}
