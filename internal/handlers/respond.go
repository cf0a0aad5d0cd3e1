package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/services"
	"github.com/rapidaid/rapidaid/internal/types"
	"github.com/rapidaid/rapidaid/internal/utils"
	"go.uber.org/zap"
)

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindPermission:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindPrecondition:
		return http.StatusUnprocessableEntity
	case services.KindConflict, services.KindTerminalState:
		return http.StatusConflict
	case services.KindInvalidTransition:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes business errors with their own status and message and
// hides everything else behind a 500.
func respondError(ctx *gin.Context, logger *zap.Logger, err error) {
	if kind, ok := services.KindOf(err); ok {
		ctx.JSON(statusForKind(kind), gin.H{"error": err.Error(), "kind": kind})
		return
	}

	logger.Error("Request failed",
		zap.Error(err),
		zap.String("request_id", utils.GetRequestID(ctx)),
		zap.String("path", ctx.FullPath()))
	_ = ctx.Error(err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// currentUser aborts with 401 when the request carries no principal.
func currentUser(ctx *gin.Context) (types.Principal, bool) {
	principal, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return types.Principal{}, false
	}

	return principal, true
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := utils.GetUintParam(ctx, name)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}

	return id, true
}

func queryID(ctx *gin.Context, name string) (uint, bool) {
	id, err := utils.GetUintQuery(ctx, name)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}

	return id, true
}

func bindJSON(ctx *gin.Context, logger *zap.Logger, dest any) bool {
	if err := ctx.ShouldBindJSON(dest); err != nil {
		logger.Debug("Failed to bind JSON", zap.Error(err), zap.String("path", ctx.FullPath()))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return false
	}

	return true
}
