package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pahana-billing/internal/domain"
	itemsvc "pahana-billing/internal/service/item"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type updateItemRequest struct {
	ID int64 `json:"id"`
	itemsvc.Input
}

func (h *handlers) listCategories(c *gin.Context) {
	list, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Category{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	cat, err := h.deps.CategorySvc.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deps.CategorySvc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listItems(c *gin.Context) {
	list, err := h.deps.ItemSvc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Item{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	it, err := h.deps.ItemSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *handlers) createItem(c *gin.Context) {
	var in itemsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	it, err := h.deps.ItemSvc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (h *handlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
		badRequest(c, "id required")
		return
	}
	it, err := h.deps.ItemSvc.Update(c.Request.Context(), req.ID, req.Input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *handlers) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deps.ItemSvc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
