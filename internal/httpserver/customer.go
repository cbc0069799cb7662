package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pahana-billing/internal/domain"
	customersvc "pahana-billing/internal/service/customer"
)

type updateCustomerRequest struct {
	ID int64 `json:"id"`
	customersvc.Input
}

func (h *handlers) listCustomers(c *gin.Context) {
	list, err := h.deps.CustomerSvc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Customer{}
	}
	c.JSON(http.StatusOK, list)
}

// getCustomer serves /customer/:id, or /customer/:acc?accno=true to resolve
// an account number.
func (h *handlers) getCustomer(c *gin.Context) {
	if accno, _ := strconv.ParseBool(c.Query("accno")); accno {
		cust, err := h.deps.CustomerSvc.Resolve(c.Request.Context(), c.Param("id"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "customer not found"})
			return
		}
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cust)
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}
	cust, err := h.deps.CustomerSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *handlers) createCustomer(c *gin.Context) {
	var in customersvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	cust, err := h.deps.CustomerSvc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *handlers) updateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
		badRequest(c, "id required")
		return
	}
	cust, err := h.deps.CustomerSvc.Update(c.Request.Context(), req.ID, req.Input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *handlers) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deps.CustomerSvc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
