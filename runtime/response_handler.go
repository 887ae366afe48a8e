package runtime

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseHandler renders a flow's return step.
type ResponseHandler interface {
	Handle(c *gin.Context, exec *Execution, args map[string]any) error
}

// ResponseHandlerRegistry manages registered response handlers.
type ResponseHandlerRegistry struct {
	handlers map[string]ResponseHandler
}

// NewResponseHandlerRegistry creates a registry with the built-in http.json handler.
func NewResponseHandlerRegistry() *ResponseHandlerRegistry {
	registry := &ResponseHandlerRegistry{
		handlers: make(map[string]ResponseHandler),
	}
	registry.Register("http.json", &JSONResponseHandler{})
	return registry
}

func (r *ResponseHandlerRegistry) Register(handlerType string, handler ResponseHandler) {
	r.handlers[handlerType] = handler
}

func (r *ResponseHandlerRegistry) Get(handlerType string) (ResponseHandler, bool) {
	handler, exists := r.handlers[handlerType]
	return handler, exists
}

// JSONResponseHandler writes args.body as JSON with args.status (default 200)
// and string-valued args.headers.
type JSONResponseHandler struct{}

func (h *JSONResponseHandler) Handle(c *gin.Context, exec *Execution, args map[string]any) error {
	statusCode := http.StatusOK
	if status, ok := toStatusCode(args["status"]); ok {
		if status < 100 || status > 599 {
			return fmt.Errorf("invalid status code %d", status)
		}
		statusCode = status
	}

	if headers, ok := args["headers"].(map[string]any); ok {
		for key, value := range headers {
			if strValue, ok := value.(string); ok {
				c.Header(key, strValue)
			}
		}
	}

	body := args["body"]
	if body == nil {
		body = gin.H{}
	}

	c.JSON(statusCode, body)
	return nil
}

func toStatusCode(v any) (int, bool) {
	switch s := v.(type) {
	case int:
		return s, true
	case int64:
		return int(s), true
	case float64:
		return int(s), true
	default:
		return 0, false
	}
}
