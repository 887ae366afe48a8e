package runtime

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/sflowg/blotato/runtime/node"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sflowg/blotato/runtime"

// ErrNoSearch is returned by Search when the plugin is unknown or has no list search.
var ErrNoSearch = errors.New("no list search")

// Container holds registered plugins and the tasks discovered on them.
type Container struct {
	Tasks   map[string]Task
	plugins map[string]any
	order   []string // registration order, drives lifecycle ordering
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *taskMetrics
}

// ContainerOption customises a Container.
type ContainerOption func(*Container)

// WithMeterProvider sets the provider used for task metrics.
// The global provider is used when this option is absent.
func WithMeterProvider(mp metric.MeterProvider) ContainerOption {
	return func(c *Container) {
		c.meter = mp.Meter(tracerName)
	}
}

// WithTracerProvider sets the provider used for task spans.
// The global provider is used when this option is absent.
func WithTracerProvider(tp trace.TracerProvider) ContainerOption {
	return func(c *Container) {
		c.tracer = tp.Tracer(tracerName)
	}
}

func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		Tasks:   make(map[string]Task),
		plugins: make(map[string]any),
		tracer:  otel.Tracer(tracerName),
		meter:   otel.Meter(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newTaskMetrics(c.meter)
	return c
}

func (c *Container) GetTask(name string) Task {
	task, ok := c.Tasks[name]
	if !ok {
		return nil
	}
	return task
}

func (c *Container) SetTask(name string, task Task) {
	c.Tasks[name] = task
}

// GetPlugin returns a plugin instance by name.
func (c *Container) GetPlugin(name string) any {
	return c.plugins[name]
}

// PluginNames returns the registered plugin names in registration order.
func (c *Container) PluginNames() []string {
	return append([]string(nil), c.order...)
}

// RegisterPlugin registers a plugin instance and discovers its task methods.
//
// Two method shapes are tasks:
//
//	func (p *P) Name(exec *Execution, args map[string]any) (map[string]any, error)
//	func (p *P) Name(exec *Execution, input In) (Out, error)   // In, Out structs
//
// Task names are "<plugin>.<lowerFirst(method)>".
func (c *Container) RegisterPlugin(pluginName string, plugin any) error {
	if plugin == nil {
		return fmt.Errorf("plugin cannot be nil")
	}
	if pluginName == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if _, exists := c.plugins[pluginName]; exists {
		return fmt.Errorf("plugin %q already registered", pluginName)
	}

	c.plugins[pluginName] = plugin
	c.order = append(c.order, pluginName)

	pluginType := reflect.TypeOf(plugin)
	pluginValue := reflect.ValueOf(plugin)

	for i := 0; i < pluginType.NumMethod(); i++ {
		method := pluginType.Method(i)
		if !method.IsExported() {
			continue
		}

		taskName := fmt.Sprintf("%s.%s", pluginName, toLowerFirst(method.Name))

		switch {
		case isValidTaskSignature(method.Type):
			c.Tasks[taskName] = c.traced(taskName, &pluginTaskWrapper{plugin: pluginValue, method: method})
		case isTypedTaskSignature(method.Type):
			c.Tasks[taskName] = c.traced(taskName, &typedTaskWrapper{
				plugin:     pluginValue,
				method:     method,
				inputType:  method.Type.In(2),
				outputType: method.Type.Out(0),
			})
		}
	}

	return nil
}

// TaskNames returns the sorted names of the tasks a plugin exposes.
func (c *Container) TaskNames(pluginName string) []string {
	prefix := pluginName + "."
	var names []string
	for name := range c.Tasks {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Description returns the UI schema of a plugin, if it publishes one.
func (c *Container) Description(pluginName string) (node.Description, bool) {
	d, ok := c.plugins[pluginName].(Describer)
	if !ok {
		return node.Description{}, false
	}
	return d.Describe(), true
}

// Descriptions returns every published UI schema, in registration order.
func (c *Container) Descriptions() []node.Description {
	var out []node.Description
	for _, name := range c.order {
		if d, ok := c.Description(name); ok {
			out = append(out, d)
		}
	}
	return out
}

// Search runs a list-search method of a plugin.
func (c *Container) Search(exec *Execution, pluginName, method string, req node.ListSearchRequest) (node.ListSearchResult, error) {
	plugin, ok := c.plugins[pluginName]
	if !ok {
		return node.ListSearchResult{}, fmt.Errorf("%w: plugin %q not registered", ErrNoSearch, pluginName)
	}
	searcher, ok := plugin.(ListSearcher)
	if !ok {
		return node.ListSearchResult{}, fmt.Errorf("%w: plugin %q does not support list search", ErrNoSearch, pluginName)
	}

	ctx, span := c.tracer.Start(exec, "search.execute", trace.WithAttributes(
		attribute.String("sflowg.plugin", pluginName),
		attribute.String("sflowg.search_method", method),
	))
	defer span.End()

	result, err := searcher.Search(exec.WithContext(ctx), method, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// Initialize calls Initialize on every plugin implementing Initializer,
// in registration order. The first failure aborts startup.
func (c *Container) Initialize(ctx context.Context) error {
	exec := NewTaskExecution(ctx, c)
	for _, name := range c.order {
		initializer, ok := c.plugins[name].(Initializer)
		if !ok {
			continue
		}
		if err := initializer.Initialize(exec); err != nil {
			return fmt.Errorf("plugin %s initialization failed: %w", name, err)
		}
	}
	return nil
}

// Shutdown calls Shutdown on every plugin implementing Shutdowner,
// in reverse registration order. All plugins are attempted.
func (c *Container) Shutdown(ctx context.Context) error {
	exec := NewTaskExecution(ctx, c)
	var errs []error
	for i := len(c.order) - 1; i >= 0; i-- {
		name := c.order[i]
		shutdowner, ok := c.plugins[name].(Shutdowner)
		if !ok {
			continue
		}
		if err := shutdowner.Shutdown(exec); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s shutdown failed: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

var (
	executionPtrType = reflect.TypeOf((*Execution)(nil))
	mapType          = reflect.TypeOf(map[string]any(nil))
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
)

// isValidTaskSignature checks for the map-based task signature
// func(exec *Execution, args map[string]any) (map[string]any, error)
func isValidTaskSignature(methodType reflect.Type) bool {
	if methodType.NumIn() != 3 || methodType.NumOut() != 2 {
		return false
	}
	return methodType.In(1) == executionPtrType &&
		methodType.In(2) == mapType &&
		methodType.Out(0) == mapType &&
		methodType.Out(1) == errorType
}

// isTypedTaskSignature checks for the struct-based task signature
// func(exec *Execution, input In) (Out, error)
func isTypedTaskSignature(methodType reflect.Type) bool {
	if methodType.NumIn() != 3 || methodType.NumOut() != 2 {
		return false
	}
	return methodType.In(1) == executionPtrType &&
		methodType.In(2).Kind() == reflect.Struct &&
		methodType.Out(0).Kind() == reflect.Struct &&
		methodType.Out(1) == errorType
}

func toLowerFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// pluginTaskWrapper wraps a map-based plugin method
type pluginTaskWrapper struct {
	plugin reflect.Value
	method reflect.Method
}

func (w *pluginTaskWrapper) Execute(exec *Execution, args map[string]any) (map[string]any, error) {
	results := w.method.Func.Call([]reflect.Value{
		w.plugin,
		reflect.ValueOf(exec),
		reflect.ValueOf(args),
	})

	resultMap, _ := results[0].Interface().(map[string]any)

	var err error
	if !results[1].IsNil() {
		err = results[1].Interface().(error)
	}

	return resultMap, err
}

// typedTaskWrapper decodes args into the input struct, validates it,
// calls the method and flattens the output struct back into a map.
type typedTaskWrapper struct {
	plugin     reflect.Value
	method     reflect.Method
	inputType  reflect.Type
	outputType reflect.Type
}

func (w *typedTaskWrapper) Execute(exec *Execution, args map[string]any) (map[string]any, error) {
	input := reflect.New(w.inputType)
	if err := mapToStruct(args, input.Interface()); err != nil {
		return nil, NewTaskError(fmt.Errorf("invalid input for %s: %w", w.method.Name, err)).WithType(ErrorTypeUser)
	}

	if err := validateStruct(input.Elem().Interface()); err != nil {
		return nil, NewTaskError(fmt.Errorf("invalid input for %s: %w", w.method.Name, err)).WithType(ErrorTypeUser)
	}

	results := w.method.Func.Call([]reflect.Value{
		w.plugin,
		reflect.ValueOf(exec),
		input.Elem(),
	})

	if !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}

	output, err := structToMap(results[0].Interface())
	if err != nil {
		return nil, fmt.Errorf("failed to convert output of %s: %w", w.method.Name, err)
	}
	return output, nil
}

// tracedTask records an OpenTelemetry span and metrics around each task run.
type tracedTask struct {
	name    string
	task    Task
	tracer  trace.Tracer
	metrics *taskMetrics
}

func (c *Container) traced(name string, task Task) Task {
	return &tracedTask{name: name, task: task, tracer: c.tracer, metrics: c.metrics}
}

func (t *tracedTask) Execute(exec *Execution, args map[string]any) (map[string]any, error) {
	ctx, span := t.tracer.Start(exec, "task.execute", trace.WithAttributes(
		attribute.String("sflowg.task", t.name),
		attribute.String("sflowg.execution_id", exec.ID),
	))
	defer span.End()

	start := time.Now()
	output, err := t.task.Execute(exec.WithContext(ctx), args)
	outcome := "ok"
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		outcome = "error"
		var taskErr *TaskError
		if errors.As(err, &taskErr) && taskErr.GetType() != "" {
			outcome = taskErr.GetType()
			span.SetAttributes(attribute.String("sflowg.error_type", taskErr.GetType()))
		}
	}
	t.metrics.record(ctx, t.name, outcome, time.Since(start))
	return output, err
}
