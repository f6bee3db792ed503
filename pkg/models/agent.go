package models

// AgentConfig is an agent definition as it appears in agents.yaml.
type AgentConfig struct {
	// Role is the agent's job title, used as the persona in the system prompt.
	Role string `yaml:"role" json:"role"`
	// Goal is what the agent is trying to achieve.
	Goal string `yaml:"goal" json:"goal"`
	// Backstory gives the agent its background and expertise.
	Backstory string `yaml:"backstory" json:"backstory"`
	// LLM is the model identifier or alias the agent runs on.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty"`
	// MaxIter caps the number of model round-trips per task (0 = default).
	MaxIter int `yaml:"max_iter,omitempty" json:"max_iter,omitempty"`
	// AllowCodeExecution grants the agent shell and file tools.
	AllowCodeExecution bool `yaml:"allow_code_execution,omitempty" json:"allow_code_execution,omitempty"`
	// Verbose enables per-step logging for this agent.
	Verbose bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`
}
