// Package faults defines the closed set of error kinds the lifecycle core
// can surface, plus the single translation point from AWS SDK errors to
// those kinds. Vendor-specific error strings stay here; callers match on
// types with errors.As.
package faults

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// DependencyError reports that an AWS client could not be constructed at all.
// It is only ever produced on live paths; previews never build clients.
type DependencyError struct {
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("AWS SDK client is unavailable for live operations: %v", e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// CredentialsError carries one consistent remediation hint no matter which
// operation hit the missing credentials.
type CredentialsError struct {
	Err error
}

func (e *CredentialsError) Error() string {
	return "No AWS credentials found. To run live, set AWS_PROFILE or run `aws configure`. " +
		"Otherwise omit --apply (dry-run)."
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// UnsupportedRegionError reports that the AMI parameter does not exist in
// the requested region.
type UnsupportedRegionError struct {
	Region    string
	Parameter string
}

func (e *UnsupportedRegionError) Error() string {
	return fmt.Sprintf("AMI parameter not found in region %s (parameter: %s). "+
		"This region may not support AL2023 or the parameter path has changed.",
		e.Region, e.Parameter)
}

// PermissionError reports an access-denied response from AWS.
type PermissionError struct {
	Op     string
	Region string
	Code   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("access denied during %s in region %s (code=%s): check IAM permissions",
		e.Op, e.Region, e.Code)
}

// InvalidResponseError reports a well-formed reply whose payload fails the
// expected shape, such as an AMI id without the ami- prefix.
type InvalidResponseError struct {
	Op    string
	Value string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid value returned from %s: %q", e.Op, e.Value)
}

// RemoteError wraps any other remote failure, keeping the AWS error code
// visible for diagnostics.
type RemoteError struct {
	Op   string
	Code string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s (code=%s)", e.Op, e.Code)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// PolicyError reports a violated safety rule, not a broken call. The command
// surface maps it to its own exit code.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// Code extracts the AWS error code from err, or "Unknown".
func Code(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return "Unknown"
}

// IsCredentials reports whether err stems from missing or rejected AWS
// credentials rather than the operation itself.
func IsCredentials(err error) bool {
	switch Code(err) {
	case "AuthFailure", "UnrecognizedClientException", "InvalidClientTokenId",
		"ExpiredToken", "RequestExpired":
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "failed to retrieve credentials") ||
		strings.Contains(msg, "no EC2 IMDS role found") ||
		strings.Contains(msg, "static credentials are empty")
}

func isAccessDenied(code string) bool {
	switch code {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
		return true
	}
	return false
}

// Translate maps a remote failure from the named operation to the closed
// taxonomy above. Typed errors pass through untouched.
func Translate(op, region string, err error) error {
	if err == nil {
		return nil
	}
	var dep *DependencyError
	var creds *CredentialsError
	var unsup *UnsupportedRegionError
	var perm *PermissionError
	var invalid *InvalidResponseError
	var remote *RemoteError
	var pol *PolicyError
	if errors.As(err, &dep) || errors.As(err, &creds) || errors.As(err, &unsup) ||
		errors.As(err, &perm) || errors.As(err, &invalid) || errors.As(err, &remote) ||
		errors.As(err, &pol) {
		return err
	}
	if IsCredentials(err) {
		return &CredentialsError{Err: err}
	}
	code := Code(err)
	if isAccessDenied(code) {
		return &PermissionError{Op: op, Region: region, Code: code}
	}
	return &RemoteError{Op: op, Code: code, Err: err}
}
