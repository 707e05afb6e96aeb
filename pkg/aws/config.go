package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// DefaultRegion is used when neither the shared config nor AWS_REGION sets one.
const DefaultRegion = "us-east-1"

// endpointEnvKeys are checked in order. The first one set routes every client
// to that URL, e.g. a LocalStack edge port.
var endpointEnvKeys = []string{"AWS_ENDPOINT", "AWS_S3_ENDPOINT", "AWS_SQS_ENDPOINT"}

// CustomEndpoint returns the endpoint override from the environment, if any.
func CustomEndpoint() string {
	for _, k := range endpointEnvKeys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// LoadAWSConfig loads the default credential chain and applies the region and
// endpoint overrides from the environment. Static keys in AWS_ACCESS_KEY_ID /
// AWS_SECRET_ACCESS_KEY take precedence over shared profiles.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN")),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	if endpoint := CustomEndpoint(); endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
	}
	return cfg, nil
}
