package hostfuncs

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple definitions at once.
type HostFuncBundle interface {
	// Definitions returns the functions of the bundle.
	Definitions() []Definition
}

// WithBundle registers all definitions from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, def := range bundle.Definitions() {
			if err := b.addDefinition(def); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}
