package sync

// Options configures a reconciliation run.
type Options struct {
	// Companies is the explicit list of provider company IDs to sync.
	// Empty means single-company mode: sync the one company bound to the
	// provider credential.
	Companies []int64

	// OperatorLogin is the Grafana admin account login. It is always
	// held at Admin role in every organization and never removed.
	OperatorLogin string

	// DryRun computes and reports deltas without issuing mutating calls.
	// Token rotation and organization switching are also skipped, so a
	// dry run is fully read-only.
	DryRun bool
}

// Option is a functional option for configuring a run.
type Option func(*Options)

// WithCompanies selects the provider companies to sync explicitly.
func WithCompanies(ids []int64) Option {
	return func(o *Options) {
		o.Companies = ids
	}
}

// WithOperatorLogin sets the Grafana admin account login.
func WithOperatorLogin(login string) Option {
	return func(o *Options) {
		o.OperatorLogin = login
	}
}

// WithDryRun enables dry-run mode.
func WithDryRun(dry bool) Option {
	return func(o *Options) {
		o.DryRun = dry
	}
}

// newOptions builds Options from functional options.
func newOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
