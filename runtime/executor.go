package runtime

import (
	"fmt"
	"log/slog"
)

// Executor runs the steps of a flow in order.
type Executor struct {
	l         *slog.Logger
	evaluator ExpressionEvaluator
}

func NewExecutor(l *slog.Logger, evaluator ExpressionEvaluator) *Executor {
	return &Executor{
		l:         l,
		evaluator: evaluator,
	}
}

// ExecuteSteps runs every step whose condition holds. It stops when a return
// step produced a response or a step fails.
func (e *Executor) ExecuteSteps(execution *Execution) error {
	for _, s := range execution.Flow.Steps {
		if err := execution.Err(); err != nil {
			return NewFlowError(s.ID, err)
		}

		run, err := e.evaluateCondition(execution, s)
		if err != nil {
			return NewFlowError(s.ID, err)
		}
		if !run {
			e.l.InfoContext(execution, "Skipping step", "flow", execution.Flow.ID, "step", s.ID)
			continue
		}

		if err := e.executeStep(execution, s); err != nil {
			if s.ContinueOnError {
				e.l.WarnContext(execution, "Step failed, continuing",
					"flow", execution.Flow.ID,
					"step", s.ID,
					"error", err)
				execution.AddValue(s.ID+".error", NewFlowError(s.ID, err).ToMap())
				continue
			}
			return NewFlowError(s.ID, err)
		}

		if execution.ResponseDescriptor != nil {
			e.l.InfoContext(execution, "Response produced", "flow", execution.Flow.ID, "step", s.ID)
			break
		}
	}

	return nil
}

func (e *Executor) evaluateCondition(execution *Execution, step Step) (bool, error) {
	if step.Condition == "" {
		return true, nil
	}

	result, err := e.evaluator.Eval(step.Condition, execution.Values())
	if err != nil {
		e.l.ErrorContext(execution, "Error evaluating condition",
			"step", step.ID,
			"condition", step.Condition,
			"error", err)
		return false, fmt.Errorf("error evaluating condition %s: %w", step.Condition, err)
	}

	resultBool, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %s evaluated to %T, expected boolean", step.Condition, result)
	}
	return resultBool, nil
}

func (e *Executor) executeStep(execution *Execution, step Step) error {
	switch step.Type {
	case "assign":
		return e.handleAssign(execution, step)
	case "return":
		return e.handleReturn(execution)
	default:
		return e.handleTask(execution, step)
	}
}

func (e *Executor) handleAssign(execution *Execution, step Step) error {
	for k, v := range step.Args {
		evaluated, err := e.evaluateValue(execution, step.ID+"."+k, v)
		if err != nil {
			return err
		}
		execution.AddValue(fmt.Sprintf("%s.%s", step.ID, k), evaluated)
	}
	return nil
}

func (e *Executor) handleTask(execution *Execution, step Step) error {
	task := execution.Container.GetTask(step.Type)
	if task == nil {
		return fmt.Errorf("task type: %s not found", step.Type)
	}

	args, err := e.evaluateValue(execution, step.ID, step.Args)
	if err != nil {
		return fmt.Errorf("failed to evaluate args for task %s: %w", step.Type, err)
	}
	argMap, _ := args.(map[string]any)

	output, err := task.Execute(execution, argMap)
	if err != nil {
		e.l.ErrorContext(execution, "Task execution failed",
			"step", step.ID,
			"task_type", step.Type,
			"error", err.Error())
		return err
	}

	execution.AddValue(step.ID+".result", output)
	e.l.InfoContext(execution, "Executed task", "step", step.ID, "task_type", step.Type)
	return nil
}

func (e *Executor) handleReturn(execution *Execution) error {
	args, err := e.evaluateValue(execution, "return", execution.Flow.Return.Args)
	if err != nil {
		return fmt.Errorf("failed to evaluate return args: %w", err)
	}
	argMap, _ := args.(map[string]any)

	execution.ResponseDescriptor = &ResponseDescriptor{
		HandlerName: execution.Flow.Return.Type,
		Args:        argMap,
	}
	return nil
}

// evaluateValue evaluates strings as expressions and walks maps and slices.
// Other literals are returned unchanged.
func (e *Executor) evaluateValue(execution *Execution, path string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		result, err := e.evaluator.Eval(v, execution.Values())
		if err != nil {
			return nil, fmt.Errorf("error evaluating expression '%s' at %s: %w", v, path, err)
		}
		return result, nil
	case map[string]any:
		evaluated := make(map[string]any, len(v))
		for key, val := range v {
			res, err := e.evaluateValue(execution, path+"."+key, val)
			if err != nil {
				return nil, err
			}
			evaluated[key] = res
		}
		return evaluated, nil
	case []any:
		evaluated := make([]any, len(v))
		for i, val := range v {
			res, err := e.evaluateValue(execution, fmt.Sprintf("%s[%d]", path, i), val)
			if err != nil {
				return nil, err
			}
			evaluated[i] = res
		}
		return evaluated, nil
	default:
		return value, nil
	}
}
