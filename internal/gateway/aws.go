package gateway

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"spin/internal/config"
	"spin/internal/faults"
)

// AWSFactory builds region-bound AWS clients lazily and caches them for the
// rest of the invocation.
type AWSFactory struct {
	settings *config.Settings

	mu   sync.Mutex
	cfg  *aws.Config
	ec2c *ec2.Client
	ssmc *ssm.Client
}

// NewAWSFactory returns a factory bound to the settings' region. No AWS
// configuration is loaded until the first client request.
func NewAWSFactory(s *config.Settings) *AWSFactory {
	return &AWSFactory{settings: s}
}

func (f *AWSFactory) awsConfig(ctx context.Context) (aws.Config, error) {
	if f.cfg != nil {
		return *f.cfg, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(f.settings.Region),
	}
	if f.settings.AccessKey != "" && f.settings.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(f.settings.AccessKey, f.settings.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, &faults.DependencyError{Err: err}
	}
	f.cfg = &cfg
	return cfg, nil
}

// Compute returns the EC2 client, constructing it on first use.
func (f *AWSFactory) Compute(ctx context.Context) (Compute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ec2c != nil {
		return f.ec2c, nil
	}
	cfg, err := f.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	f.ec2c = ec2.NewFromConfig(cfg)
	return f.ec2c, nil
}

// ParameterStore returns the SSM client, constructing it on first use.
func (f *AWSFactory) ParameterStore(ctx context.Context) (ParameterStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ssmc != nil {
		return f.ssmc, nil
	}
	cfg, err := f.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	f.ssmc = ssm.NewFromConfig(cfg)
	return f.ssmc, nil
}
