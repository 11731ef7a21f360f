package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pushtrack/interfaces"
	"pushtrack/models"
	"pushtrack/utils"
)

// MetricsController handles delivery-event reconciliation and analytics
// queries.
type MetricsController struct {
	metrics interfaces.MetricsRecorder
}

// NewMetricsController creates a metrics controller.
func NewMetricsController(metrics interfaces.MetricsRecorder) *MetricsController {
	return &MetricsController{metrics: metrics}
}

// RecordDeliveryEvent handles POST /metrics. Validation failures return
// 400 before any storage access; unknown (notification, token) pairs are
// not an error, the metric is created lazily.
func (mc *MetricsController) RecordDeliveryEvent(c *gin.Context) {
	var req models.DeliveryEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	notificationID, token, event, rawTimestamp := req.Normalize()

	if notificationID == "" || token == "" || event == "" {
		utils.BadRequestResponse(c, "message_id, person_id, and status are required")
		return
	}
	if event != models.EventDelivered && event != models.EventOpened {
		utils.BadRequestResponse(c, `Status must be either "delivered" or "opened"`)
		return
	}

	var timestamp time.Time
	if rawTimestamp != "" {
		parsed, err := time.Parse(time.RFC3339, rawTimestamp)
		if err != nil {
			utils.BadRequestResponse(c, "Timestamp must be RFC 3339")
			return
		}
		timestamp = parsed
	}

	metric, err := mc.metrics.RecordEvent(c.Request.Context(), models.DeliveryEvent{
		NotificationID: notificationID,
		Token:          token,
		Event:          event,
		SendContext:    req.SendContext,
		SendContextID:  req.SendContextID,
		Timestamp:      timestamp,
	})
	if err != nil {
		logrus.Errorf("Failed to record %s event: %v", event, err)
		utils.ErrorResponseFromErr(c, err)
		return
	}

	utils.OKResponse(c, models.MetricEventResponse{
		Success: true,
		Message: fmt.Sprintf("Metric %s recorded successfully", event),
		Data:    metric,
	})
}

// GetNotificationMetrics handles GET /metrics/:message_id. Responds 404
// for an unknown notification, never a server error.
func (mc *MetricsController) GetNotificationMetrics(c *gin.Context) {
	notificationID := c.Param("message_id")
	if notificationID == "" {
		utils.BadRequestResponse(c, "message_id is required")
		return
	}

	analytics, err := mc.metrics.GetAnalytics(c.Request.Context(), notificationID)
	if err != nil {
		if serviceErr, ok := utils.GetServiceError(err); !ok || serviceErr.Code != utils.ErrCodeNotFound {
			logrus.Errorf("Failed to compute analytics for %s: %v", notificationID, err)
		}
		utils.ErrorResponseFromErr(c, err)
		return
	}

	utils.OKResponse(c, analytics)
}
