package brewery

// Brewery types as classified by Open Brewery DB, in the order the directory
// presents them.
const (
	TypeMicro      = "micro"
	TypeNano       = "nano"
	TypeRegional   = "regional"
	TypeBrewpub    = "brewpub"
	TypeLarge      = "large"
	TypePlanning   = "planning"
	TypeBar        = "bar"
	TypeContract   = "contract"
	TypeProprietor = "proprietor"
	TypeClosed     = "closed"
)

var knownTypes = []string{
	TypeMicro,
	TypeNano,
	TypeRegional,
	TypeBrewpub,
	TypeLarge,
	TypePlanning,
	TypeBar,
	TypeContract,
	TypeProprietor,
	TypeClosed,
}

// Types returns the known brewery types. The returned slice is a copy.
func Types() []string {
	out := make([]string, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// IsKnownType reports whether t is one of the known brewery types.
func IsKnownType(t string) bool {
	for _, known := range knownTypes {
		if known == t {
			return true
		}
	}
	return false
}
