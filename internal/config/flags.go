package config

// Overrides carries command-line values that beat the config file.
// Pointer fields distinguish "flag not given" from an explicit false.
type Overrides struct {
	StartPath string
	Dual      *bool
	Hidden    *bool
	LogLevel  string
}

func Apply(base Config, ov Overrides) Config {
	if ov.StartPath != "" {
		base.StartPath = ov.StartPath
	}
	if ov.Dual != nil {
		base.DualPane = *ov.Dual
	}
	if ov.Hidden != nil {
		base.ShowHidden = *ov.Hidden
	}
	if ov.LogLevel != "" {
		base.LogLevel = ov.LogLevel
	}
	return base
}
