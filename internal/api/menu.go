package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/babcheck/babcheck/backend/internal/service"
)

// MenuHandler serves the normalized daily menu.
type MenuHandler struct {
	menus service.IMenuService
}

func NewMenuHandler(menus service.IMenuService) *MenuHandler {
	return &MenuHandler{menus: menus}
}

func (h *MenuHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/menu", h.GetMenu)
}

// GetMenu returns the menu for ?date= (YYYYMMDD or YYYY-MM-DD, default
// today). It never fails on upstream problems; the default menu is served
// instead.
func (h *MenuHandler) GetMenu(c *gin.Context) {
	date, err := h.menus.Normalize(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	daily, err := h.menus.ForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, daily)
}
