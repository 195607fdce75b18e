package authz

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// Resource kinds as casbin objects.
const (
	ObjectTeam       = "team"
	ObjectMember     = "member"
	ObjectInvitation = "invitation"
	ObjectUser       = "user"
	ObjectActivity   = "activity"
)

// NewEnforcer builds the write-policy enforcer backed by the shared database.
// Reads are decided by membership alone; writes are default-deny and every
// grant below is explicit.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Team owners administer the tenant.
		{"role:owner", ObjectTeam, string(OpUpdate)},
		{"role:owner", ObjectTeam, string(OpDelete)},
		{"role:owner", ObjectMember, string(OpCreate)},
		{"role:owner", ObjectMember, string(OpUpdate)},
		{"role:owner", ObjectMember, string(OpDelete)},
		{"role:owner", ObjectInvitation, string(OpCreate)},
		{"role:owner", ObjectInvitation, string(OpUpdate)},
		{"role:owner", ObjectInvitation, string(OpDelete)},

		// Plain members hold no write grants.

		// The system principal serves out-of-band collaborators: billing
		// updates, invitation redemption, user provisioning.
		{"role:system", ObjectTeam, string(OpCreate)},
		{"role:system", ObjectTeam, string(OpUpdate)},
		{"role:system", ObjectTeam, string(OpDelete)},
		{"role:system", ObjectMember, string(OpCreate)},
		{"role:system", ObjectMember, string(OpUpdate)},
		{"role:system", ObjectMember, string(OpDelete)},
		{"role:system", ObjectInvitation, string(OpCreate)},
		{"role:system", ObjectInvitation, string(OpUpdate)},
		{"role:system", ObjectInvitation, string(OpDelete)},
		{"role:system", ObjectUser, string(OpCreate)},
		{"role:system", ObjectUser, string(OpUpdate)},
		{"role:system", ObjectUser, string(OpDelete)},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
