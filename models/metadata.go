package models

// Metadata is the project's top-level metadata.json.
type Metadata struct {
	Version string `json:"version"`
	Hooks   *Hooks `json:"hooks,omitempty"`
}

// Hooks are user scripts run around the stack lifecycle.
type Hooks struct {
	PreRun  []ScriptHook `json:"pre_run"`
	PostRun []ScriptHook `json:"post_run"`
}

type ScriptHook struct {
	Cmd               string            `json:"cmd"`
	Args              []string          `json:"args,omitempty"`
	WorkingDirectory  string            `json:"working_directory,omitempty"`
	EnvOverrides      map[string]string `json:"env_overrides,omitempty"`
	HideOutput        bool              `json:"hide_output"`
	ContinueOnFailure bool              `json:"continue_on_failure"`
}
