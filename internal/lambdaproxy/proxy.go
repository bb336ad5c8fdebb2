// Package lambdaproxy serves API Gateway proxy events through the gin router.
package lambdaproxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"storefront-service/internal/api"
	"storefront-service/internal/util"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	adapter *ginadapter.GinLambda
	logger  *zap.Logger
}

func New(router *gin.Engine) *Handler {
	return &Handler{
		adapter: ginadapter.New(router),
		logger:  util.GetLogger().Named("lambda"),
	}
}

// Handle runs the event through the router. Events the adapter cannot turn
// into a request are answered here instead of failing the invocation.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if event.IsBase64Encoded {
		if _, err := base64.StdEncoding.DecodeString(event.Body); err != nil {
			h.logger.Warn("Rejected event with undecodable body",
				zap.String("path", event.Path), zap.Error(err))
			return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
		}
	}

	resp, err := h.adapter.ProxyWithContext(ctx, event)
	if err != nil {
		h.logger.Error("Lambda proxy failed",
			zap.String("method", event.HTTPMethod),
			zap.String("path", event.Path),
			zap.Error(err))
		return errorResponse(http.StatusInternalServerError, "Internal server error"), nil
	}
	return resp, nil
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(gin.H{"success": false, "error": message})

	headers := api.CORSHeaders()
	headers["Content-Type"] = "application/json; charset=utf-8"
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}
