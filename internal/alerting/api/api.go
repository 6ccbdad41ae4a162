// Package api exposes the alert and alert-rule HTTP surface. All routes
// here are admin routes and are expected to sit behind the admin auth
// middleware.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huntu09/airdropshunter-sub001/internal/alerting/service/monitor"
	"github.com/huntu09/airdropshunter-sub001/internal/alerting/service/rules"
)

type Api struct {
	manager *monitor.Manager
	store   rules.Store
}

func NewApi(router gin.IRouter, manager *monitor.Manager, store rules.Store) *Api {
	api := &Api{manager: manager, store: store}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router gin.IRouter) {
	router.GET("/v1/alerts", api.ListAlerts)
	router.POST("/v1/alerts/:alertID/resolve", api.ResolveAlert)

	router.GET("/v1/alert-rules", api.ListRules)
	router.GET("/v1/alert-rules/:ruleID", api.GetRule)
	router.PUT("/v1/alert-rules/:ruleID", api.UpsertRule)
	router.DELETE("/v1/alert-rules/:ruleID", api.DeleteRule)
}

func errResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func (api *Api) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": api.manager.Alerts()})
}

func (api *Api) ResolveAlert(c *gin.Context) {
	id := c.Param("alertID")
	if id == "" {
		errResponse(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing alertID")
		return
	}
	if err := api.manager.ResolveAlert(id); err != nil {
		if errors.Is(err, monitor.ErrAlertNotFound) {
			errResponse(c, http.StatusNotFound, "NOT_FOUND", "alert not found")
			return
		}
		errResponse(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": id})
}

func (api *Api) ListRules(c *gin.Context) {
	list, err := api.store.ListRules(c.Request.Context())
	if err != nil {
		errResponse(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": list})
}

func (api *Api) GetRule(c *gin.Context) {
	r, err := api.store.GetRule(c.Request.Context(), c.Param("ruleID"))
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			errResponse(c, http.StatusNotFound, "NOT_FOUND", "rule not found")
			return
		}
		errResponse(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	c.JSON(http.StatusOK, r)
}

func (api *Api) UpsertRule(c *gin.Context) {
	var r rules.AlertRule
	if err := c.ShouldBindJSON(&r); err != nil {
		errResponse(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	r.ID = c.Param("ruleID")
	if err := r.Validate(); err != nil {
		errResponse(c, http.StatusBadRequest, "INVALID_RULE", err.Error())
		return
	}
	if err := api.store.UpsertRule(c.Request.Context(), &r); err != nil {
		errResponse(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	c.JSON(http.StatusOK, r)
}

func (api *Api) DeleteRule(c *gin.Context) {
	if err := api.store.DeleteRule(c.Request.Context(), c.Param("ruleID")); err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			errResponse(c, http.StatusNotFound, "NOT_FOUND", "rule not found")
			return
		}
		errResponse(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
