package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/models"
)

// selfOrSiteAdmin rejects callers acting on another user's record unless
// they are site admins.
func (h *Handlers) selfOrSiteAdmin(caller, userID string) error {
	if caller == userID || h.directory.IsSiteAdmin(caller) {
		return nil
	}
	return fmt.Errorf("%w: not authorized to act on user %q", common.ErrUnauthorized, userID)
}

func validateUserFields(name, email, researchDescription string) error {
	if err := checkLen("name", name, maxNameLen); err != nil {
		return err
	}
	if err := checkLen("email", email, maxEmailLen); err != nil {
		return err
	}
	return checkLen("researchDescription", researchDescription, maxResearchDescriptionLen)
}

func (h *Handlers) addUser(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req addUserRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.UserID == "" {
		writeError(c, fmt.Errorf("%w: userId is required", common.ErrValidation))
		return
	}
	if err := checkLen("userId", req.UserID, maxUserIDLen); err != nil {
		writeError(c, err)
		return
	}
	if err := h.selfOrSiteAdmin(caller, req.UserID); err != nil {
		writeError(c, err)
		return
	}
	if err := validateUserFields(req.Name, req.Email, req.ResearchDescription); err != nil {
		writeError(c, err)
		return
	}

	user := &models.User{
		ID:                  req.UserID,
		Name:                req.Name,
		Email:               req.Email,
		ResearchDescription: req.ResearchDescription,
	}
	if err := h.directory.CreateUser(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) getUser(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req getUserRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if err := h.selfOrSiteAdmin(caller, req.UserID); err != nil {
		writeError(c, err)
		return
	}

	user, err := h.directory.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToDTO(user))
}

func (h *Handlers) getUsers(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if !h.directory.IsSiteAdmin(caller) {
		writeError(c, fmt.Errorf("%w: only site admins may list users", common.ErrUnauthorized))
		return
	}

	users, err := h.directory.GetAllUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, userToDTO(u))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) setUserInfo(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req setUserInfoRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if err := h.selfOrSiteAdmin(caller, req.UserID); err != nil {
		writeError(c, err)
		return
	}

	var update models.UserUpdate
	strField := func(name string, v *string, max int) (models.Field[string], error) {
		if v == nil {
			return models.Field[string]{}, nil
		}
		if *v == "" {
			return models.Clear[string](), nil
		}
		if err := checkLen(name, *v, max); err != nil {
			return models.Field[string]{}, err
		}
		return models.Set(*v), nil
	}
	if update.Name, err = strField("name", req.Name, maxNameLen); err != nil {
		writeError(c, err)
		return
	}
	if update.Email, err = strField("email", req.Email, maxEmailLen); err != nil {
		writeError(c, err)
		return
	}
	if update.ResearchDescription, err = strField("researchDescription", req.ResearchDescription, maxResearchDescriptionLen); err != nil {
		writeError(c, err)
		return
	}

	if err := h.directory.UpdateUser(c.Request.Context(), req.UserID, update); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) resetUserAPIKey(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req resetUserAPIKeyRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.UserID == "" {
		writeError(c, fmt.Errorf("%w: userId is required", common.ErrValidation))
		return
	}
	if err := h.selfOrSiteAdmin(caller, req.UserID); err != nil {
		writeError(c, err)
		return
	}

	key, err := h.directory.ResetAPIKey(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resetUserAPIKeyResponse{APIKey: key})
}
