package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hallel20/real-estate/internal/api/middleware"
	"github.com/hallel20/real-estate/internal/tasks"
)

// IAsynqClient defines the interface for the Asynq client methods used by handlers.
// This allows easier mocking than using the concrete asynq.Client.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// currentUserID extracts the authenticated user's ID from the Gin context.
// Aborts with 401 when the auth middleware did not run or the stored hex is bad.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idHex := c.GetString(middleware.ContextKeyUserID)
	if idHex == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

// isAdminRequest reports whether the authenticated caller holds the admin role.
func isAdminRequest(c *gin.Context) bool {
	return c.GetString(middleware.ContextKeyRole) == "admin"
}

// pathObjectID parses an ObjectID path parameter, aborting with 400 on bad input.
func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// enqueueEmail dispatches an email delivery task. Failures are logged and
// swallowed: notification delivery never fails the triggering request.
func enqueueEmail(ctx context.Context, client IAsynqClient, to, templateID string, data map[string]string) {
	if client == nil {
		return
	}
	payloadBytes, err := json.Marshal(tasks.EmailTaskPayload{To: to, TemplateID: templateID, Data: data})
	if err != nil {
		log.Printf("Failed to marshal email task payload (template %s): %v", templateID, err)
		return
	}
	task := asynq.NewTask(tasks.TypeEmailDelivery, payloadBytes)
	if _, err := client.EnqueueContext(ctx, task); err != nil {
		log.Printf("Failed to enqueue %s email to %s: %v", templateID, to, err)
	}
}
