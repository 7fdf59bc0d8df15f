package domain

// PermitType is the regulatory permit family a source belongs to.
type PermitType string

// Known permit types.
const (
	PermitTypePIRT  PermitType = "PIRT"
	PermitTypeHalal PermitType = "HALAL"
	PermitTypeBPOM  PermitType = "BPOM"
)

// DefaultRegion is the region assumed for questions that do not name one.
const DefaultRegion = "DIY"

// IsValid returns true if the permit type is recognised.
func (p PermitType) IsValid() bool {
	switch p {
	case PermitTypePIRT, PermitTypeHalal, PermitTypeBPOM:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p PermitType) String() string {
	return string(p)
}

// Description returns a human-readable description of the permit type.
func (p PermitType) Description() string {
	switch p {
	case PermitTypePIRT:
		return "PIRT (home-industry food production)"
	case PermitTypeHalal:
		return "Halal certification"
	case PermitTypeBPOM:
		return "BPOM (food and drug registration)"
	default:
		return unknownDescription
	}
}

// AllPermitTypes returns every known permit type.
func AllPermitTypes() []PermitType {
	return []PermitType{PermitTypePIRT, PermitTypeHalal, PermitTypeBPOM}
}
