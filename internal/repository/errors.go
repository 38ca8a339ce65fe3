// Package repository implements data access over MySQL. Sentinel errors
// defined here and next to their repositories let handlers map failure
// modes to HTTP statuses: conflicts abort with 409, a missing open till is
// a 412 precondition failure, and sql.ErrNoRows propagates for not-found.
package repository

import "errors"

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as opening a cash session while another is still
// open. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNoOpenSession is returned when a payment-affecting operation runs with
// no OPEN cash session. Handlers should translate this into an HTTP 412 and
// direct the operator to the open-session flow.
var ErrNoOpenSession = errors.New("no open cash session")
