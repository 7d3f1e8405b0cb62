// Package apperr defines the error kinds shared by tgreport components.
//
// Components return *Error values tagged with a Kind instead of exiting the
// process. The CLI inspects the kind with [KindOf] to pick an exit code.
package apperr
