package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/interfaces/http/middleware"
	"farmvet-auth.backend/internal/interfaces/http/response"
	"farmvet-auth.backend/pkg/utils"
)

// AdminHandler handles account review by admins
type AdminHandler struct {
	admin AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers returns accounts filtered by status, role and search text
// GET /api/v1/auth/admin/users/
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	var filter entities.AccountFilter
	var page utils.PaginationParams
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid query parameters"))
		return
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid query parameters"))
		return
	}
	page = utils.GetPaginationParams(page.Page, page.Limit)

	accounts, total, err := h.admin.ListAccounts(c.Request.Context(), actorID, filter, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"users": accounts,
		"meta":  utils.CalculateMeta(total, page.Page, page.Limit),
	})
}

// Approve POST /api/v1/auth/admin/users/:id/approve/
func (h *AdminHandler) Approve(c *gin.Context) {
	h.review(c, h.admin.Approve, "User approved.")
}

// Decline POST /api/v1/auth/admin/users/:id/decline/
func (h *AdminHandler) Decline(c *gin.Context) {
	h.review(c, h.admin.Decline, "User declined.")
}

func (h *AdminHandler) review(c *gin.Context, apply func(ctx context.Context, actorID, accountID uuid.UUID) error, message string) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid user ID"))
		return
	}

	if err := apply(c.Request.Context(), actorID, accountID); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, message)
}
