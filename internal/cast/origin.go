package cast

// Origin is the provenance classification of an identifier.
type Origin string

const (
	OriginNative  Origin = "NATIVE"
	OriginSystem  Origin = "SYS"
	OriginUser    Origin = "USR" // reserved; no rule produces it yet
	OriginUnknown Origin = "UNK"
)

// Classifier holds the builtin and system vocabularies. It is never mutated
// after construction and may be shared between concurrent builds.
type Classifier struct {
	native map[string]struct{}
	system map[string]struct{}
}

// NewClassifier builds a Classifier from builtin names and resolved system
// module names.
func NewClassifier(builtins, system []string) *Classifier {
	c := &Classifier{
		native: make(map[string]struct{}, len(builtins)),
		system: make(map[string]struct{}, len(system)),
	}
	for _, name := range builtins {
		c.native[name] = struct{}{}
	}
	for _, name := range system {
		c.system[name] = struct{}{}
	}
	return c
}

// WithSystem returns a Classifier sharing c's builtins and using the given
// system names.
func (c *Classifier) WithSystem(system []string) *Classifier {
	out := &Classifier{native: c.native, system: make(map[string]struct{}, len(system))}
	for _, name := range system {
		out.system[name] = struct{}{}
	}
	return out
}

// Classify returns NATIVE for builtins, SYSTEM for resolved system names and
// UNKNOWN otherwise.
func (c *Classifier) Classify(name string) Origin {
	if _, ok := c.native[name]; ok {
		return OriginNative
	}
	if _, ok := c.system[name]; ok {
		return OriginSystem
	}
	return OriginUnknown
}

// AliasTable maps a locally bound alias to the name it stands for. One table
// lives for exactly one build.
type AliasTable map[string]string

// Set records alias -> original. The last write wins.
func (a AliasTable) Set(alias, original string) {
	a[alias] = original
}

// Resolve looks name up once. Chained aliases are not followed; a miss
// resolves to name itself.
func (a AliasTable) Resolve(name string) string {
	if original, ok := a[name]; ok {
		return original
	}
	return name
}
