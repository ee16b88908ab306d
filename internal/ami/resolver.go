// Package ami resolves the current base image id from the SSM public
// parameter namespace.
package ami

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"spin/internal/faults"
	"spin/internal/gateway"
)

// ParameterPath is the public SSM parameter holding the latest AL2023 AMI.
const ParameterPath = "/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-6.1-x86_64"

// Resolve looks up the latest AL2023 AMI id for region. Remote failures are
// translated by cause: missing credentials, parameter-not-found and
// access-denied each map to their own error kind.
func Resolve(ctx context.Context, store gateway.ParameterStore, region string) (string, error) {
	out, err := store.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(ParameterPath),
	})
	if err != nil {
		if faults.IsCredentials(err) {
			return "", &faults.CredentialsError{Err: err}
		}
		code := faults.Code(err)
		switch code {
		case "ParameterNotFound":
			return "", &faults.UnsupportedRegionError{Region: region, Parameter: ParameterPath}
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
			return "", &faults.PermissionError{Op: "fetch AMI parameter from SSM", Region: region, Code: code}
		default:
			return "", &faults.RemoteError{Op: "fetch AMI from SSM", Code: code, Err: err}
		}
	}

	var id string
	if out.Parameter != nil {
		id = aws.ToString(out.Parameter.Value)
	}
	if !strings.HasPrefix(id, "ami-") {
		return "", &faults.InvalidResponseError{Op: "SSM AMI lookup", Value: id}
	}
	return id, nil
}
