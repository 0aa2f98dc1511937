package module

// Base provides the declarative half of a module (requires/produces and a
// description) so implementations only write Validate and Execute.
type Base struct {
	description string
	requires    []string
	produces    []string
}

// NewBase seeds the helper with a description.
func NewBase(description string) Base {
	return Base{description: description}
}

// SetRequires declares the required artifacts.
func (b *Base) SetRequires(names ...string) {
	b.requires = append([]string{}, names...)
}

// SetProduces declares the produced artifacts.
func (b *Base) SetProduces(names ...string) {
	b.produces = append([]string{}, names...)
}

// Description implements Declarer.
func (b *Base) Description() string {
	return b.description
}

// Requires implements Declarer.
func (b *Base) Requires() []string {
	return append([]string{}, b.requires...)
}

// Produces implements Declarer.
func (b *Base) Produces() []string {
	return append([]string{}, b.produces...)
}
