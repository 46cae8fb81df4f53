package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campushq/staff-attend-api/internal/models"
)

// DenyKind classifies why a mark-attendance request was refused.
type DenyKind string

const (
	DenyMissingFields    DenyKind = "MISSING_FIELDS"
	DenyUnauthenticated  DenyKind = "UNAUTHENTICATED"
	DenyRoleNotPermitted DenyKind = "ROLE_NOT_PERMITTED"
	DenyTargetNotFound   DenyKind = "TARGET_NOT_FOUND"
)

// Denial message strings are part of the wire contract and must not change.
const (
	MsgMissingFields    = "Missing required fields"
	MsgUnauthorized     = "Unauthorized"
	MsgMarkersOnly      = "Only Mazer or Assistant can mark attendance"
	MsgMazerTargets     = "Mazer can only mark teachers' attendance"
	MsgAssistantTargets = "Assistant can only mark staff attendance"
	MsgTargetNotFound   = "User not found"
)

// AuditFields is attached to an allowed decision and copied onto the
// persisted attendance record by the caller.
type AuditFields struct {
	MarkedAt time.Time `json:"marked_at"`
	MarkedBy int64     `json:"marked_by"`
}

// Decision is the outcome of a single policy evaluation.
type Decision struct {
	Allowed bool
	Kind    DenyKind
	Message string
	Audit   AuditFields
}

// Request carries the inputs for one evaluation. CallerID and CallerRole come
// from the authenticated session; the policy never reads ambient state.
type Request struct {
	CallerID     int64
	CallerRole   models.UserRole
	TargetUserID int64
	Date         string
	Status       string
}

// UserDirectory resolves a user id to a role-bearing record. A nil user with
// a nil error, or sql.ErrNoRows, both mean "not found".
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// MarkingPolicy decides whether a caller may create an attendance record for
// a target user. It is pure apart from the single directory lookup and keeps
// no state between evaluations; duplicate marks for the same (user, date) are
// deliberately not rejected here.
type MarkingPolicy struct {
	directory UserDirectory
	now       func() time.Time
}

// Option customises policy construction.
type Option func(*MarkingPolicy)

// WithClock overrides the timestamp source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *MarkingPolicy) {
		p.now = now
	}
}

// NewMarkingPolicy builds a policy backed by the given directory.
func NewMarkingPolicy(directory UserDirectory, opts ...Option) *MarkingPolicy {
	p := &MarkingPolicy{
		directory: directory,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func deny(kind DenyKind, message string) Decision {
	return Decision{Kind: kind, Message: message}
}

// Evaluate runs the marking rules in strict order, short-circuiting at the
// first failure. A zero TargetUserID is treated as a missing field rather
// than an unknown user; this mirrors the contract the frontend depends on.
// The returned error is non-nil only when the directory lookup itself fails.
func (p *MarkingPolicy) Evaluate(ctx context.Context, req Request) (Decision, error) {
	if req.TargetUserID == 0 || req.Date == "" || req.Status == "" {
		return deny(DenyMissingFields, MsgMissingFields), nil
	}

	if req.CallerID == 0 {
		return deny(DenyUnauthenticated, MsgUnauthorized), nil
	}

	if req.CallerRole != models.RoleMazer && req.CallerRole != models.RoleAssistant {
		return deny(DenyRoleNotPermitted, MsgMarkersOnly), nil
	}

	target, err := p.directory.GetUser(ctx, req.TargetUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deny(DenyTargetNotFound, MsgTargetNotFound), nil
		}
		return Decision{}, fmt.Errorf("resolve target user %d: %w", req.TargetUserID, err)
	}
	if target == nil {
		return deny(DenyTargetNotFound, MsgTargetNotFound), nil
	}

	canMark := (req.CallerRole == models.RoleMazer && target.Role == models.RoleTeacher) ||
		(req.CallerRole == models.RoleAssistant && target.Role == models.RoleStaff)
	if !canMark {
		if req.CallerRole == models.RoleMazer {
			return deny(DenyRoleNotPermitted, MsgMazerTargets), nil
		}
		return deny(DenyRoleNotPermitted, MsgAssistantTargets), nil
	}

	return Decision{
		Allowed: true,
		Audit:   AuditFields{MarkedAt: p.now(), MarkedBy: req.CallerID},
	}, nil
}
