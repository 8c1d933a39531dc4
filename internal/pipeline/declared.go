package pipeline

import "github.com/neurostage/bidsify/internal/config"

// Declared builds Inputs from explicitly passed series paths. Config
// validation has already guaranteed every group is present; payload and
// companion existence is checked during planning.
func Declared(cfg *config.Config) Inputs {
	var in Inputs
	for _, p := range cfg.DWISeries {
		in.Diffusion = append(in.Diffusion, FileSet{Image: p, Role: RolePrimaryDiffusion})
	}
	rev := FileSet{Image: cfg.RPESeries, Role: RoleReverseReference}
	in.Reverse = &rev
	t1 := FileSet{Image: cfg.T1w, Role: RoleStructural}
	in.Structural = &t1
	in.ReconDir = cfg.FSDir
	return in
}
