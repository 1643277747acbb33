package ir

// Metadata identifies a model.
type Metadata struct {
	Name        string `json:"name"` // modelName and modelIdentifier
	Description string `json:"description"`
	GUID        string `json:"guid"`
}

// Experiment is the DefaultExperiment advertised in the model description.
type Experiment struct {
	StartTime float64 `json:"start_time" yaml:"start_time" toml:"start_time"`
	StopTime  float64 `json:"stop_time" yaml:"stop_time" toml:"stop_time"`
	Tolerance float64 `json:"tolerance" yaml:"tolerance" toml:"tolerance"`
	StepSize  float64 `json:"step_size" yaml:"step_size" toml:"step_size"`
}

// DefaultExperiment returns the experiment used when nothing overrides it.
func DefaultExperiment() Experiment {
	return Experiment{
		StartTime: 0,
		StopTime:  1,
		Tolerance: 0.0001,
		StepSize:  0.01,
	}
}

// Capabilities are the co-simulation capability flags.
type Capabilities struct {
	CanHandleVariableCommunicationStepSize bool `json:"can_handle_variable_communication_step_size" yaml:"variable_step_size" toml:"variable_step_size"`
	CanGetAndSetFMUState                   bool `json:"can_get_and_set_fmu_state" yaml:"get_and_set_state" toml:"get_and_set_state"`
	CanSerializeFMUState                   bool `json:"can_serialize_fmu_state" yaml:"serialize_state" toml:"serialize_state"`
	ProvidesDirectionalDerivative          bool `json:"provides_directional_derivative" yaml:"directional_derivative" toml:"directional_derivative"`
	CanInterpolateInputs                   bool `json:"can_interpolate_inputs" yaml:"interpolate_inputs" toml:"interpolate_inputs"`
}

// DefaultCapabilities returns the flags fmigen advertises by default.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		CanHandleVariableCommunicationStepSize: true,
		CanGetAndSetFMUState:                   true,
	}
}

// Model is a compiled model: metadata, experiment, variables and the Go
// struct they live in.
type Model struct {
	Metadata
	Experiment Experiment `json:"experiment"`
	Table      *Table     `json:"-"`
	GoType     string     `json:"go_type"`
}

// Variables exposes the table for JSON output.
func (m *Model) Variables() []Variable {
	return m.Table.Variables()
}
