package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter resolves a secret by name.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

type SecretsClient struct {
	client *secretsmanager.Client
	cache  map[string]string
	mu     sync.RWMutex
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{
		client: secretsmanager.NewFromConfig(cfg),
		cache:  make(map[string]string),
	}
}

// GetSecret returns the secret string, caching it for the process lifetime.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	v, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &name})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.mu.Lock()
	s.cache[name] = *out.SecretString
	s.mu.Unlock()

	return *out.SecretString, nil
}

// SecretField reads one key out of a JSON object secret. A secret that is not
// a JSON object is returned whole.
func SecretField(ctx context.Context, g SecretGetter, name, field string) (string, error) {
	raw, err := g.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	var obj map[string]any
	if json.Unmarshal([]byte(raw), &obj) != nil {
		return raw, nil
	}
	v, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("secret %s has no field %q", name, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("secret %s field %q is not a string", name, field)
	}
	return s, nil
}
