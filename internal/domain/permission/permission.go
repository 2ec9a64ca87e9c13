// Package permission decides what an actor may do to a piece of content. It
// never looks anything up: existence checks belong to the repository.
package permission

import (
	"fmt"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

type TargetKind string

const (
	TargetProfile    TargetKind = "profile"
	TargetUser       TargetKind = "user"
	TargetChallenge  TargetKind = "challenge"
	TargetComment    TargetKind = "comment"
	TargetSubmission TargetKind = "submission"
)

type Verdict bool

const (
	Deny  Verdict = false
	Allow Verdict = true
)

func (v Verdict) String() string {
	if v {
		return "allow"
	}
	return "deny"
}

// Actor is the subset of a user the rules look at.
type Actor struct {
	ID                 int64
	IsAdmin            bool
	RequireNewPassword bool
}

// ActorOf returns nil for a nil user so anonymous callers are denied.
func ActorOf(u *model.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, IsAdmin: u.IsAdmin, RequireNewPassword: u.RequireNewPassword}
}

// TargetOf maps a content kind to its permission target.
func TargetOf(kind model.ContentKind) TargetKind {
	switch kind {
	case model.KindChallenge:
		return TargetChallenge
	case model.KindComment:
		return TargetComment
	case model.KindSubmission:
		return TargetSubmission
	}
	return ""
}

func (k TargetKind) isContent() bool {
	return k == TargetChallenge || k == TargetComment || k == TargetSubmission
}

// Decide applies the rules in order; the first one that matches wins.
func Decide(actor *Actor, action Action, target TargetKind, ownerID int64) Verdict {
	if actor == nil {
		return Deny
	}
	if actor.IsAdmin {
		return Allow
	}
	// Accounts under a forced password reset may not post.
	if action == ActionCreate && target.isContent() && !actor.RequireNewPassword {
		return Allow
	}
	if (action == ActionEdit || action == ActionDelete) && ownerID == actor.ID {
		return Allow
	}
	// Viewing a user record is admin only; profiles are public.
	if action == ActionView && (target.isContent() || target == TargetProfile) {
		return Allow
	}
	return Deny
}

// Check is Decide as an error: nil on allow, ErrForbidden on deny.
func Check(actor *Actor, action Action, target TargetKind, ownerID int64) error {
	if Decide(actor, action, target, ownerID) == Allow {
		return nil
	}
	return fmt.Errorf("%s %s: %w", action, target, common.ErrForbidden)
}
