// Package bootstrap builds the configured document store for the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Moustapha2526/TinyIsnta/internal/config"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
	"github.com/Moustapha2526/TinyIsnta/store"
)

// NewStore constructs the store selected by cfg.StoreDriver.
func NewStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		return store.NewDynamo(client, store.Config{
			Tables: map[string]string{
				social.KindUser: cfg.UserTable,
				social.KindPost: cfg.PostTable,
			},
		}), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
