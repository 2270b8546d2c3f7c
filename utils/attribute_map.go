package utils

// AttributeMap is a loosely typed bag of configuration values, as decoded from JSON.
type AttributeMap map[string]interface{}

// Has returns whether the key is present.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}
