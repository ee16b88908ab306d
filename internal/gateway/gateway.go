// Package gateway abstracts the two AWS services spin talks to. The
// interfaces are satisfied directly by the SDK clients, so tests swap in
// stubs and dry-run paths never construct a client at all.
package gateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Compute is the EC2 control-plane slice used by the lifecycle manager.
type Compute interface {
	RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeInstanceStatus(ctx context.Context, in *ec2.DescribeInstanceStatusInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceStatusOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// ParameterStore is the SSM slice used by the AMI resolver.
type ParameterStore interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Factory hands out service clients on demand. Implementations must defer
// construction until the first call so that preview paths work without
// credentials or network access.
type Factory interface {
	Compute(ctx context.Context) (Compute, error)
	ParameterStore(ctx context.Context) (ParameterStore, error)
}
