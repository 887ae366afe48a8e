package runtime

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sflowg/blotato/runtime/node"
)

const (
	RequestBodyKey    = "request.body"
	RequestRawBodyKey = "request.rawBody"
	RequestQueryKey   = "request.queryParameters"
	RequestPathKey    = "request.pathVariables"
)

// NewHttpHandler registers the HTTP entrypoint of a flow.
func NewHttpHandler(flow *Flow, container *Container, executor *Executor, responses *ResponseHandlerRegistry, globalProperties map[string]any, g *gin.Engine) {
	config := flow.Entrypoint.Config
	method, _ := config["method"].(string)
	path, _ := config["path"].(string)

	handler := handleFlowRequest(flow, container, executor, responses, globalProperties)

	switch strings.ToLower(method) {
	case "get":
		g.GET(path, handler)
	case "post":
		g.POST(path, handler)
	default:
		slog.Warn("Unsupported entrypoint method", "flow", flow.ID, "method", method)
		return
	}
	slog.Info("Registered HTTP entrypoint", "flow", flow.ID, "method", method, "path", path)
}

func handleFlowRequest(flow *Flow, container *Container, executor *Executor, responses *ResponseHandlerRegistry, globalProperties map[string]any) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := NewExecution(c.Request.Context(), flow, container, globalProperties)
		if err != nil {
			slog.Error("Flow execution setup failed", "flow", flow.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		if err := extractRequestData(c, e); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		if err := executor.ExecuteSteps(e); err != nil {
			slog.Error("Flow execution failed",
				"flow", flow.ID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"error", err.Error())
			c.JSON(flowErrorStatus(err), gin.H{"error": NewFlowError("", err)})
			return
		}

		toResponse(c, e, responses)
	}
}

var errWrongBodyFormat = errors.New("wrong request body format")

func extractRequestData(c *gin.Context, e *Execution) error {
	for _, p := range c.Params {
		e.AddValue(RequestPathKey+"."+p.Key, p.Value)
	}
	query := make(map[string]any)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	e.AddValue(RequestQueryKey, query)

	if c.Request.Method != http.MethodPost {
		return nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return errWrongBodyFormat
	}
	e.AddValue(RequestRawBodyKey, string(body))
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return errWrongBodyFormat
	}
	e.AddValue(RequestBodyKey, parsed)
	return nil
}

func toResponse(c *gin.Context, e *Execution, responses *ResponseHandlerRegistry) {
	if e.ResponseDescriptor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	handler, exists := responses.Get(e.ResponseDescriptor.HandlerName)
	if !exists {
		slog.Error("Response handler not found",
			"flow", e.Flow.ID,
			"type", e.ResponseDescriptor.HandlerName)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Unknown response type: " + e.ResponseDescriptor.HandlerName,
		})
		return
	}

	if err := handler.Handle(c, e, e.ResponseDescriptor.Args); err != nil {
		slog.Error("Response handler execution failed",
			"flow", e.Flow.ID,
			"type", e.ResponseDescriptor.HandlerName,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Error generating response: " + err.Error(),
		})
	}
}

func flowErrorStatus(err error) int {
	var flowErr *FlowError
	if errors.As(err, &flowErr) && flowErr.Code == ErrorCodeInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NewNodeHandler exposes the node API the host UI talks to:
//
//	GET  /nodes                          all descriptions
//	GET  /nodes/:plugin                  one description
//	POST /nodes/:plugin/tasks/:task      run <plugin>.<task> with the JSON body as args
//	GET  /nodes/:plugin/search/:method   list search; filter, paginationToken, other query params as context
func NewNodeHandler(container *Container, g *gin.Engine) {
	nodes := g.Group("/nodes")

	nodes.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"nodes": container.Descriptions()})
	})

	nodes.GET("/:plugin", func(c *gin.Context) {
		d, ok := container.Description(c.Param("plugin"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown node: " + c.Param("plugin")})
			return
		}
		c.JSON(http.StatusOK, d)
	})

	nodes.POST("/:plugin/tasks/:task", func(c *gin.Context) {
		name := c.Param("plugin") + "." + c.Param("task")
		task := container.GetTask(name)
		if task == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown task: " + name})
			return
		}

		args := map[string]any{}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&args); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": errWrongBodyFormat.Error()})
				return
			}
		}

		exec := NewTaskExecution(c.Request.Context(), container)
		output, err := task.Execute(exec, args)
		if err != nil {
			slog.Error("Node task failed", "task", name, "execution_id", exec.ID, "error", err)
			c.JSON(HTTPStatus(err), errorBody(err))
			return
		}
		c.JSON(http.StatusOK, output)
	})

	nodes.GET("/:plugin/search/:method", func(c *gin.Context) {
		req := node.ListSearchRequest{
			Filter:          c.Query("filter"),
			PaginationToken: c.Query("paginationToken"),
			Params:          map[string]any{},
		}
		for k, v := range c.Request.URL.Query() {
			if k == "filter" || k == "paginationToken" || len(v) == 0 {
				continue
			}
			req.Params[k] = v[0]
		}

		exec := NewTaskExecution(c.Request.Context(), container)
		result, err := container.Search(exec, c.Param("plugin"), c.Param("method"), req)
		if errors.Is(err, ErrNoSearch) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		if err != nil {
			slog.Error("List search failed",
				"plugin", c.Param("plugin"),
				"method", c.Param("method"),
				"error", err)
			c.JSON(HTTPStatus(err), errorBody(err))
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func errorBody(err error) gin.H {
	body := gin.H{"message": err.Error()}
	var taskErr *TaskError
	if errors.As(err, &taskErr) && len(taskErr.Metadata) > 0 {
		body["metadata"] = taskErr.Metadata
	}
	return body
}
