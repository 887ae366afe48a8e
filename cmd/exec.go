package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sflowg/blotato/plugins/blotato"
	"github.com/sflowg/blotato/runtime"
	"github.com/sflowg/blotato/runtime/node"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExecCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <task> [json-args]",
		Short: "Run one task and print its output as JSON",
		Long: `Exec runs a single task of the Blotato node. The task name may omit the
"blotato." prefix. Arguments are a JSON object given inline, through
--args-file, or on stdin with --args-file -.

Example:
  blotato exec execute '{"resource":"post","operation":"get","postSubmissionId":"abc"}'
  blotato exec createPost --args-file post.json
  blotato exec testCredentials`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			argsFile, _ := cmd.Flags().GetString("args-file")
			input, err := readArgs(cmd.InOrStdin(), args[1:], argsFile)
			if err != nil {
				return err
			}

			app, _, err := buildApp(v, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			output, err := runTask(cmd, app, args[0], input)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().String("args-file", "", "read the JSON arguments from a file (- for stdin)")
	return cmd
}

func newSearchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <method>",
		Short: "Run a list search and print the dropdown items",
		Long: `Search runs one of the list-search methods that fill the node's dropdowns.

Example:
  blotato search searchAccounts --param platform=twitter --filter ada`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			pairs, _ := cmd.Flags().GetStringToString("param")

			req := node.ListSearchRequest{Filter: filter, Params: map[string]any{}}
			for k, val := range pairs {
				req.Params[k] = val
			}

			app, _, err := buildApp(v, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := app.Container.Initialize(cmd.Context()); err != nil {
				return err
			}
			defer app.Container.Shutdown(cmd.Context())

			exec := runtime.NewTaskExecution(cmd.Context(), app.Container)
			result, err := app.Container.Search(exec, blotato.NodeName, args[0], req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().String("filter", "", "case-insensitive name filter")
	cmd.Flags().StringToString("param", nil, "search context parameter, key=value (repeatable)")
	return cmd
}

func runTask(cmd *cobra.Command, app *runtime.App, name string, input map[string]any) (map[string]any, error) {
	if !strings.Contains(name, ".") {
		name = blotato.NodeName + "." + name
	}
	task := app.Container.GetTask(name)
	if task == nil {
		return nil, fmt.Errorf("unknown task %s (available: %s)", name, strings.Join(app.Container.TaskNames(blotato.NodeName), ", "))
	}

	if err := app.Container.Initialize(cmd.Context()); err != nil {
		return nil, err
	}
	defer app.Container.Shutdown(cmd.Context())

	exec := runtime.NewTaskExecution(cmd.Context(), app.Container)
	output, err := task.Execute(exec, input)
	if err != nil {
		return nil, describeError(err)
	}
	return output, nil
}

// describeError appends the task error metadata so the CLI shows the
// upstream status and error type.
func describeError(err error) error {
	var taskErr *runtime.TaskError
	if !errors.As(err, &taskErr) || len(taskErr.Metadata) == 0 {
		return err
	}
	meta, mErr := json.Marshal(taskErr.Metadata)
	if mErr != nil {
		return err
	}
	return fmt.Errorf("%w %s", err, meta)
}

func readArgs(stdin io.Reader, inline []string, argsFile string) (map[string]any, error) {
	var data []byte
	switch {
	case len(inline) > 0 && argsFile != "":
		return nil, fmt.Errorf("pass the arguments inline or with --args-file, not both")
	case len(inline) > 0:
		data = []byte(inline[0])
	case argsFile == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		data = b
	case argsFile != "":
		b, err := os.ReadFile(argsFile)
		if err != nil {
			return nil, fmt.Errorf("reading args file: %w", err)
		}
		data = b
	default:
		return map[string]any{}, nil
	}

	args := map[string]any{}
	if strings.TrimSpace(string(data)) == "" {
		return args, nil
	}
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
