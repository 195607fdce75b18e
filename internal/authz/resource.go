// Package authz is the policy decision point: it reimplements the database
// row-security predicates as explicit, testable functions evaluated in
// application code.
package authz

import "github.com/bwmarrin/snowflake"

// Operation is a mutating verb evaluated by CanWrite.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Resource is any row the engine can decide about.
type Resource interface {
	ResourceKind() string
}

// TeamScoped rows carry a tenant boundary; visibility follows membership of
// that team.
type TeamScoped interface {
	TeamScope() snowflake.ID
}

// UserScoped rows belong to a single user; the base policy grants
// self-access only.
type UserScoped interface {
	UserScope() snowflake.ID
}
