package middlewares

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"

	"nexura/pkg/log"
	"nexura/utils"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Resources guarded by Authorize
const (
	ResourceQuest     = "quest"
	ResourceCampaign  = "campaign"
	ResourceReferral  = "referral"
	ResourceProfile   = "profile"
	ResourceProject   = "project"
	ResourceUpload    = "upload"
	ResourceEcosystem = "ecosystem"
	ResourceAdmin     = "admin"
	ResourceRelay     = "relay"
)

var defaultPolicies = [][]string{
	{utils.PrincipalUser, ResourceQuest, "claim"},
	{utils.PrincipalUser, ResourceEcosystem, "claim"},
	{utils.PrincipalUser, ResourceCampaign, "join"},
	{utils.PrincipalUser, ResourceCampaign, "claim"},
	{utils.PrincipalUser, ResourceReferral, "*"},
	{utils.PrincipalUser, ResourceProfile, "*"},
	{utils.PrincipalProject, ResourceCampaign, "write"},
	{utils.PrincipalProject, ResourceProject, "read"},
	{utils.PrincipalProject, ResourceUpload, "write"},
	{utils.PrincipalAdmin, ResourceQuest, "write"},
	{utils.PrincipalAdmin, ResourceEcosystem, "write"},
	{utils.PrincipalAdmin, ResourceProject, "*"},
	{utils.PrincipalAdmin, ResourceAdmin, "*"},
	{utils.PrincipalAdmin, ResourceRelay, "*"},
}

// NewEnforcer builds the route policy enforcer
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return enforcer, nil
}

// Authorize checks the authenticated principal kind against the policy.
// It must run after Authenticate.
func Authorize(enforcer *casbin.Enforcer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := c.GetString(ContextStatus)
		if kind == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization token"})
			return
		}

		allowed, err := enforcer.Enforce(kind, resource, action)
		if err != nil {
			log.Errorf("Casbin enforce error: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Permission check failed"})
			return
		}
		if !allowed {
			log.Debugf("RBAC: denied %s %s on %s", kind, action, resource)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
