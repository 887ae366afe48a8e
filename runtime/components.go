package runtime

type Flow struct {
	ID         string         `yaml:"id"`
	Entrypoint Entrypoint     `yaml:"entrypoint"`
	Steps      []Step         `yaml:"steps"`
	Properties map[string]any `yaml:"properties"`
	Return     Return         `yaml:"return"`
}

type Entrypoint struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// Step is one flow step. Type is "assign", "return" or a task name such as
// "blotato.execute". Args values are expressions; quote string literals.
type Step struct {
	ID        string         `yaml:"id"`
	Type      string         `yaml:"type"`
	Condition string         `yaml:"condition,omitempty"`
	Args      map[string]any `yaml:"args"`
	// ContinueOnError records the failure under <id>.error and moves on.
	ContinueOnError bool `yaml:"continueOnError,omitempty"`
}

type Return struct {
	Type string         `yaml:"type"`
	Args map[string]any `yaml:"args"`
}
