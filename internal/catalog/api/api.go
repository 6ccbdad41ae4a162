// Package api exposes the public catalog reads and the admin mutations.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/database"
	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
	"github.com/huntu09/airdropshunter-sub001/internal/catalog/service"
)

type Api struct {
	svc *service.Service
}

// NewApi registers the public routes on public and the admin routes on
// admin. The admin router is expected to carry the auth middleware.
func NewApi(public, admin gin.IRouter, svc *service.Service) *Api {
	api := &Api{svc: svc}
	api.setupPublicRouters(public)
	api.setupAdminRouters(admin)
	return api
}

func (api *Api) setupPublicRouters(router gin.IRouter) {
	router.GET("/v1/airdrops", api.ListAirdrops)
	router.GET("/v1/airdrops/:slug", api.GetAirdrop)
	router.GET("/v1/airdrops/:slug/tasks", api.ListTasks)
	router.POST("/v1/verifications", api.SubmitVerification)
	router.GET("/v1/users/:userID/rewards", api.GetReward)
}

func (api *Api) setupAdminRouters(router gin.IRouter) {
	router.POST("/v1/admin/airdrops", api.CreateAirdrop)
	router.PUT("/v1/admin/airdrops/:airdropID", api.UpdateAirdrop)
	router.DELETE("/v1/admin/airdrops/:airdropID", api.DeleteAirdrop)
	router.POST("/v1/admin/airdrops/:airdropID/tasks", api.CreateTask)
	router.DELETE("/v1/admin/tasks/:taskID", api.DeleteTask)
	router.GET("/v1/admin/verifications", api.ListVerifications)
	router.GET("/v1/admin/audit", api.ListAudit)
	router.POST("/v1/admin/verifications/:verificationID/approve", api.ApproveVerification)
	router.POST("/v1/admin/verifications/:verificationID/reject", api.RejectVerification)
}

func errResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		errResponse(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrAlreadyReviewed):
		errResponse(c, http.StatusConflict, "ALREADY_REVIEWED", "verification already reviewed")
	default:
		errResponse(c, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

// actorID identifies the admin performing a mutation for the audit trail.
func actorID(c *gin.Context) string {
	if v := c.GetHeader("X-Actor-ID"); v != "" {
		return v
	}
	return "admin"
}

func (api *Api) ListAirdrops(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	q := &model.AirdropQuery{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	}
	c.JSON(http.StatusOK, gin.H{"airdrops": api.svc.ListAirdrops(c.Request.Context(), q)})
}

func (api *Api) GetAirdrop(c *gin.Context) {
	a, err := api.svc.GetAirdropBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (api *Api) ListTasks(c *gin.Context) {
	a, err := api.svc.GetAirdropBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	tasks, err := api.svc.ListTasks(c.Request.Context(), a.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type submitVerificationRequest struct {
	UserID   string `json:"user_id"`
	TaskID   string `json:"task_id"`
	ProofURL string `json:"proof_url"`
}

func (api *Api) SubmitVerification(c *gin.Context) {
	var req submitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.UserID == "" || req.TaskID == "" {
		errResponse(c, http.StatusBadRequest, "INVALID_PARAMETER", "user_id and task_id are required")
		return
	}
	v, err := api.svc.SubmitVerification(c.Request.Context(), req.UserID, req.TaskID, req.ProofURL)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (api *Api) GetReward(c *gin.Context) {
	r, err := api.svc.GetReward(c.Request.Context(), c.Param("userID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (api *Api) CreateAirdrop(c *gin.Context) {
	var req model.UpsertAirdropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Title == "" || req.Slug == "" {
		errResponse(c, http.StatusBadRequest, "INVALID_PARAMETER", "title and slug are required")
		return
	}
	a, err := api.svc.CreateAirdrop(c.Request.Context(), actorID(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (api *Api) UpdateAirdrop(c *gin.Context) {
	var req model.UpsertAirdropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	a, err := api.svc.UpdateAirdrop(c.Request.Context(), actorID(c), c.Param("airdropID"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (api *Api) DeleteAirdrop(c *gin.Context) {
	if err := api.svc.DeleteAirdrop(c.Request.Context(), actorID(c), c.Param("airdropID")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (api *Api) CreateTask(c *gin.Context) {
	var req model.UpsertTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	t, err := api.svc.CreateTask(c.Request.Context(), actorID(c), c.Param("airdropID"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (api *Api) DeleteTask(c *gin.Context) {
	if err := api.svc.DeleteTask(c.Request.Context(), actorID(c), c.Param("taskID")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (api *Api) ListVerifications(c *gin.Context) {
	list, err := api.svc.ListVerifications(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifications": list})
}

func (api *Api) ListAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := api.svc.ListAudit(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": list})
}

func (api *Api) ApproveVerification(c *gin.Context) {
	v, err := api.svc.ApproveVerification(c.Request.Context(), actorID(c), c.Param("verificationID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (api *Api) RejectVerification(c *gin.Context) {
	v, err := api.svc.RejectVerification(c.Request.Context(), actorID(c), c.Param("verificationID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
