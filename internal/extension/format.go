package extension

// Format selects the payload delimiter convention for serialized values.
//
// Both formats render "<timestamp><delimiter><payload>". The wire format
// inserts a ":" marker before the payload so that free text containing
// spaces survives re-tokenizing by the link protocol; the storage format
// omits the marker because local persistence keeps the value intact.
// The two formats are otherwise identical and both round-trip exactly.
type Format int

const (
	// FormatWire is used for values in transit between nodes.
	FormatWire Format = iota
	// FormatStorage is used for values persisted locally.
	FormatStorage
)

// delimiter returns the separator placed between timestamp and payload.
func (f Format) delimiter() string {
	if f == FormatWire {
		return " :"
	}
	return " "
}

func (f Format) String() string {
	switch f {
	case FormatWire:
		return "wire"
	case FormatStorage:
		return "storage"
	default:
		return "unknown"
	}
}
