package runtime

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// AppConfig is the content of flow-config.yaml.
type AppConfig struct {
	Properties map[string]any            `yaml:"properties"`
	FlowsDir   string                    `yaml:"flows"`
	Plugins    map[string]map[string]any `yaml:"plugins"`
}

type App struct {
	Container *Container
	Flows     map[string]Flow
	Config    AppConfig
}

// NewApp creates an app from flow-config.yaml. An empty path yields an app
// with no flows and no plugin configuration.
func NewApp(configPath string, opts ...ContainerOption) (*App, error) {
	app := &App{
		Container: NewContainer(opts...),
		Flows:     make(map[string]Flow),
	}

	if configPath == "" {
		return app, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &app.Config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config %s: %w", configPath, err)
	}

	if app.Config.FlowsDir == "" {
		return app, nil
	}

	flowsDir := app.Config.FlowsDir
	if !filepath.IsAbs(flowsDir) {
		flowsDir = filepath.Join(filepath.Dir(configPath), flowsDir)
	}
	if err := app.LoadFlows(flowsDir); err != nil {
		return nil, err
	}

	return app, nil
}

// RegisterPlugin prepares the plugin's config from the plugins.<name> section
// of flow-config.yaml (env references resolved) and registers the plugin.
// config must point at the plugin's Config field; nil skips config handling.
func (a *App) RegisterPlugin(name string, plugin any, config any) error {
	if config != nil {
		raw, err := ResolveEnvVar(a.Config.Plugins[name])
		if err != nil {
			return fmt.Errorf("plugin %s config: %w", name, err)
		}
		values, _ := raw.(map[string]any)
		if err := InitializeConfig(config, values); err != nil {
			return fmt.Errorf("plugin %s config: %w", name, err)
		}
	}

	if err := a.Container.RegisterPlugin(name, plugin); err != nil {
		return err
	}
	slog.Info("Plugin registered", "plugin", name, "tasks", a.Container.TaskNames(name))
	return nil
}

// LoadFlows reads every *.yaml flow in dir.
func (a *App) LoadFlows(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("error reading directory: %w", err)
	}

	for _, file := range files {
		flow, err := readFlow(file)
		if err != nil {
			return err
		}
		if err := a.RegisterFlow(flow); err != nil {
			return fmt.Errorf("flow file %s: %w", file, err)
		}
	}
	return nil
}

// stepIDPattern keeps step IDs usable as expression identifiers.
var stepIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (a *App) RegisterFlow(flow Flow) error {
	if flow.ID == "" {
		return fmt.Errorf("flow id is required")
	}
	if _, exists := a.Flows[flow.ID]; exists {
		return fmt.Errorf("flow %s already registered", flow.ID)
	}

	for _, s := range flow.Steps {
		if !stepIDPattern.MatchString(s.ID) {
			return fmt.Errorf("flow %s: step id %q must be an identifier (letters, digits, underscore)", flow.ID, s.ID)
		}
		if s.Type == "" {
			return fmt.Errorf("flow %s: step %s has no type", flow.ID, s.ID)
		}
	}

	// The return section runs as a final step.
	if flow.Return.Type != "" {
		flow.Steps = append(flow.Steps, Step{ID: "__return", Type: "return"})
	}

	a.Flows[flow.ID] = flow
	return nil
}

func readFlow(file string) (Flow, error) {
	yamlFile, err := os.ReadFile(file)
	if err != nil {
		return Flow{}, fmt.Errorf("error reading YAML file: %w", err)
	}

	var flow Flow
	if err := yaml.Unmarshal(yamlFile, &flow); err != nil {
		return Flow{}, fmt.Errorf("error unmarshalling YAML %s: %w", file, err)
	}

	return flow, nil
}
