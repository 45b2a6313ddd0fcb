package patterns

// Registry holds the ordered rule lists used by the classifier.
//
// Built-in rules always precede registered extras, so they retain matching
// priority. The registry is additive only: there is no removal or reordering
// operation, which keeps composition safe across callers. Register all extra
// rules before classification starts; the registry is not synchronized for
// concurrent mutation.
type Registry struct {
	infra []Rule
	code  []Rule
}

// NewRegistry creates a registry seeded with the built-in rule tables.
func NewRegistry() *Registry {
	return &Registry{
		infra: builtinInfraRules(),
		code:  builtinCodeRules(),
	}
}

// InfraRules returns the infrastructure rules in matching order.
func (r *Registry) InfraRules() []Rule {
	return r.infra
}

// CodeRules returns the code rules in matching order.
func (r *Registry) CodeRules() []Rule {
	return r.code
}

// Register appends extra rules (e.g. for GitLab CI or Jenkins) after the
// built-ins in their respective categories. Either slice may be nil.
func (r *Registry) Register(infra, code []Rule) {
	r.infra = append(r.infra, infra...)
	r.code = append(r.code, code...)
}
