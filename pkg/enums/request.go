package enums

import "fmt"

// RequestStatus tracks a supply request through its lifecycle.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	switch r {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the request can no longer change.
func (r RequestStatus) IsTerminal() bool {
	return r == RequestStatusApproved || r == RequestStatusRejected
}

// RequestKind routes a supply request to its fulfiller.
type RequestKind string

const (
	// RequestKindLocal is fulfilled from the requesting unit's own stock.
	RequestKindLocal RequestKind = "local"
	// RequestKindCentral is fulfilled from the central warehouse, producing an
	// implicit transfer to the requesting unit.
	RequestKindCentral RequestKind = "central"
)

// IsValid reports whether the value is a known RequestKind.
func (r RequestKind) IsValid() bool {
	return r == RequestKindLocal || r == RequestKindCentral
}

// ParseRequestKind converts raw input into a RequestKind.
func ParseRequestKind(value string) (RequestKind, error) {
	switch RequestKind(value) {
	case RequestKindLocal:
		return RequestKindLocal, nil
	case RequestKindCentral:
		return RequestKindCentral, nil
	}
	return "", fmt.Errorf("invalid request kind %q", value)
}
