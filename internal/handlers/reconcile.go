package handlers

import (
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReconcileHandler struct {
	reconcileService *services.ReconcileService
}

func NewReconcileHandler(reconcileService *services.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: reconcileService}
}

// Run sweeps orphaned rows synchronously and returns the report
// POST /api/admin/reconcile
func (h *ReconcileHandler) Run(c *gin.Context) {
	report, err := h.reconcileService.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.Info().Uint("user_id", middleware.GetUserID(c)).Int64("removed", report.Total()).Msg("manual reconcile")
	response.Success(c, report)
}
