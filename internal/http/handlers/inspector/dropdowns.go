package inspector

import (
	"sort"

	"github.com/cargo-inspection/internal/authz"
	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/identity"

	"github.com/gin-gonic/gin"
)

// GetDropdowns 站点人员下拉快照
func (h *Handler) GetDropdowns(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	snapshot, err := h.DirectoryService.Dropdowns(c.Request.Context(), principal, c.Param("site"))
	if err != nil {
		shared.RespondServiceError(c, err, directoryErrorRules, "error.directory_unavailable")
		return
	}
	response.Success(c, snapshot)
}

type meView struct {
	identity.Principal
	Permissions []authz.Policy `json:"permissions"`
}

// GetMe 当前登录身份及可访问的接口，前端据此决定展示哪些页面
func (h *Handler) GetMe(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	view := meView{Principal: principal, Permissions: []authz.Policy{}}
	if h.AuthzService != nil {
		policies, err := h.AuthzService.PoliciesForClaims(principal.Roles)
		if err != nil {
			shared.RequestLog(c).Warnw("me_permissions_failed", "user", principal.DisplayName(), "error", err)
		} else {
			sort.Slice(policies, func(i, j int) bool {
				if policies[i].Object == policies[j].Object {
					return policies[i].Action < policies[j].Action
				}
				return policies[i].Object < policies[j].Object
			})
			view.Permissions = policies
		}
	}
	response.Success(c, view)
}
