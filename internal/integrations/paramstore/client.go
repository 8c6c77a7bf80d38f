// Package paramstore resolves the webhook bridge's secrets from AWS SSM
// Parameter Store. The bridge keeps its GitHub token out of the Lambda
// environment; only the parameter prefix is configured there.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// githubTokenParam is the parameter name under the prefix holding the token
// used for repository_dispatch calls.
const githubTokenParam = "github-token"

// ssmAPI is the minimal AWS SSM interface required by Secrets.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Secrets reads decrypted parameters below a fixed prefix.
type Secrets struct {
	api    ssmAPI
	prefix string
}

// New creates a Secrets reader for the given prefix, e.g.
// "/zoom-discord-workflows/prod".
func New(api ssmAPI, prefix string) (*Secrets, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("paramstore: prefix is required")
	}
	return &Secrets{api: api, prefix: prefix}, nil
}

// GitHubToken resolves the repository_dispatch token.
func (s *Secrets) GitHubToken(ctx context.Context) (string, error) {
	return s.get(ctx, githubTokenParam)
}

func (s *Secrets) get(ctx context.Context, name string) (string, error) {
	full := s.prefix + "/" + name
	withDecryption := true
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &full,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", full, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", full)
	}
	value := strings.TrimSpace(*out.Parameter.Value)
	if value == "" {
		return "", fmt.Errorf("paramstore: parameter %q is empty", full)
	}
	return value, nil
}
