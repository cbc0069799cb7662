package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	staffsvc "pahana-billing/internal/service/staff"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password required")
		return
	}
	sess, err := h.deps.StaffSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.StaffSvc.Logout(c.Request.Context(), c.GetString(tokenCtxKey)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentStaff(c))
}

func (h *handlers) listStaff(c *gin.Context) {
	list, err := h.deps.StaffSvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) createStaff(c *gin.Context) {
	var in staffsvc.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	st, err := h.deps.StaffSvc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *handlers) deleteStaff(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if me := currentStaff(c); me != nil && me.ID == id {
		badRequest(c, "cannot delete the signed-in account")
		return
	}
	if err := h.deps.StaffSvc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
