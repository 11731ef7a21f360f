package controllers

import (
	"pushtrack/interfaces"
	"pushtrack/models"
	"pushtrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NotificationController handles batch push-send requests.
type NotificationController struct {
	dispatcher interfaces.Dispatcher
}

// NewNotificationController creates a notification controller.
func NewNotificationController(dispatcher interfaces.Dispatcher) *NotificationController {
	return &NotificationController{dispatcher: dispatcher}
}

// Send handles POST /send. The response is 200 even when some (or all)
// tokens fail at the provider; per-token outcomes are in results and the
// summary. Only malformed input or a failure to persist the notification
// itself produces an error status.
func (nc *NotificationController) Send(c *gin.Context) {
	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.FormatBindingError(err))
		return
	}

	notificationID, summary, results, err := nc.dispatcher.Send(c.Request.Context(), req)
	if err != nil {
		logrus.Errorf("Dispatch failed: %v", err)
		utils.ErrorResponseFromErr(c, err)
		return
	}

	utils.OKResponse(c, models.SendResponse{
		Success:        true,
		NotificationID: notificationID,
		Summary:        summary,
		Results:        results,
	})
}
