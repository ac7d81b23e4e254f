package types

// Event is the attribute-bag record the native engines produce on every state
// transition: a dotted type name such as "stipend.claimed" plus string-valued
// attributes carrying the operation's facts. Attributes are always strings so
// the record serialises identically into logs and RPC payloads.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute value, or the empty string when the
// event carries no such attribute.
func (e *Event) Attribute(key string) string {
	if e == nil {
		return ""
	}
	return e.Attributes[key]
}
