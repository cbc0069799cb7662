package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pahana-billing/internal/domain"
	salerepo "pahana-billing/internal/repository/sale"
)

func (h *handlers) createSale(c *gin.Context) {
	var req domain.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	var createdBy *int64
	if st := currentStaff(c); st != nil {
		createdBy = &st.ID
	}
	bill, err := h.deps.SaleSvc.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (h *handlers) listSales(c *gin.Context) {
	includeItems, _ := strconv.ParseBool(c.Query("includeItems"))
	bills, err := h.deps.SaleSvc.List(c.Request.Context(), salerepo.ListFilter{
		Query:        c.Query("q"),
		Sort:         c.Query("sort"),
		Descending:   strings.EqualFold(c.Query("order"), "desc"),
		IncludeItems: includeItems,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if bills == nil {
		bills = []domain.Bill{}
	}
	c.JSON(http.StatusOK, bills)
}

func (h *handlers) getSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	bill, err := h.deps.SaleSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}
