package reviewer

import (
	"strconv"

	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
)

var profileErrorRules = []shared.MappedError{
	{Target: service.ErrProfileNotFound, Code: response.CodeNotFound, Key: "error.profile_not_found"},
	{Target: service.ErrProfileExists, Code: response.CodeConflict, Key: "error.profile_exists"},
	{Target: service.ErrProfileInvalid, Code: response.CodeBadRequest, Key: "error.profile_invalid"},
}

func parseProfileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}

// ListProfiles 人员档案列表，site 为空时返回全部
func (h *Handler) ListProfiles(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	profiles, err := h.DirectoryService.ListProfiles(c.Request.Context(), principal, c.Query("site"))
	if err != nil {
		shared.RespondServiceError(c, err, profileErrorRules, "error.directory_unavailable")
		return
	}
	response.Success(c, profiles)
}

// CreateProfile 新建人员档案
func (h *Handler) CreateProfile(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	var input service.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	profile, err := h.DirectoryService.CreateProfile(c.Request.Context(), principal, input)
	if err != nil {
		shared.RespondServiceError(c, err, profileErrorRules, "error.internal_error")
		return
	}
	response.Success(c, profile)
}

// UpdateProfile 更新人员档案
func (h *Handler) UpdateProfile(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseProfileID(c)
	if !ok {
		return
	}
	var input service.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	profile, err := h.DirectoryService.UpdateProfile(c.Request.Context(), principal, id, input)
	if err != nil {
		shared.RespondServiceError(c, err, profileErrorRules, "error.internal_error")
		return
	}
	response.Success(c, profile)
}

// DeleteProfile 删除人员档案
func (h *Handler) DeleteProfile(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseProfileID(c)
	if !ok {
		return
	}
	if err := h.DirectoryService.DeleteProfile(c.Request.Context(), principal, id); err != nil {
		shared.RespondServiceError(c, err, profileErrorRules, "error.internal_error")
		return
	}
	response.Success(c, gin.H{"id": id})
}
