// Package attendance implements the operator HTTP API.
//
// It maps JSON requests onto a provided business-service interface and
// translates service errors into HTTP status codes.
package attendance
