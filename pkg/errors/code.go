package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Service codes (AA).
const (
	// ServiceCommon is shared by all modules.
	ServiceCommon = 0
	// ServiceKB is the knowledge base module.
	ServiceKB = 21
)

// Category codes (BB).
const (
	CategorySuccess     = 0
	CategoryRequest     = 1
	CategoryResource    = 4
	CategoryConflict    = 5
	CategoryInternal    = 7
	CategoryDatabase    = 8
	CategoryCache       = 9
	CategoryNetwork     = 10
	CategoryTimeout     = 11
	CategoryConfig      = 12
	CategoryConsistency = 13
)

// MakeCode builds an AABBCCC error code.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// newRequestErr registers a request/validation error (HTTP 400).
func newRequestErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryRequest, sequence), http.StatusBadRequest, codes.InvalidArgument, en, zh))
}

// newNotFoundErr registers a resource not found error (HTTP 404).
func newNotFoundErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryResource, sequence), http.StatusNotFound, codes.NotFound, en, zh))
}

// newConflictErr registers a conflict error (HTTP 409).
func newConflictErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryConflict, sequence), http.StatusConflict, codes.AlreadyExists, en, zh))
}

// newInternalErr registers an internal error (HTTP 500).
func newInternalErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryInternal, sequence), http.StatusInternalServerError, codes.Internal, en, zh))
}

// newDatabaseErr registers a storage error (HTTP 500).
func newDatabaseErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryDatabase, sequence), http.StatusInternalServerError, codes.Internal, en, zh))
}

// newNetworkErr registers an upstream service error (HTTP 503).
func newNetworkErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryNetwork, sequence), http.StatusServiceUnavailable, codes.Unavailable, en, zh))
}

// newConsistencyErr registers a consistency violation (HTTP 422).
func newConsistencyErr(service, sequence int, en, zh string) *Errno {
	return Register(New(MakeCode(service, CategoryConsistency, sequence), http.StatusUnprocessableEntity, codes.FailedPrecondition, en, zh))
}
