package subscription

// Kind is the container kind a subscription feeds. Its value is the wire
// name sent in subscribe requests.
type Kind string

const (
	KindRecord     Kind = "object"
	KindList       Kind = "array"
	KindCollection Kind = "map"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRecord, KindList, KindCollection:
		return true
	default:
		return false
	}
}

// String returns the domain name of the kind (record, list, collection).
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindCollection:
		return "collection"
	default:
		return string(k)
	}
}

// ParseKind accepts both the domain names and the wire names.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "record", string(KindRecord):
		return KindRecord, true
	case "list", string(KindList):
		return KindList, true
	case "collection", string(KindCollection):
		return KindCollection, true
	default:
		return "", false
	}
}
