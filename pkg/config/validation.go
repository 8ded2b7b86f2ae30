package config

import (
	"fmt"

	"github.com/google/uuid"
)

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return ErrNoEndpoint
	}
	if c.DrainTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyDrainTimeoutSeconds)
	}
	if c.Transport.PublishTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyPublishTimeoutSeconds)
	}
	if c.Transport.ConnectAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", KeyConnectAttempts)
	}
	if c.Transport.RedisMaxLen < 0 {
		return fmt.Errorf("%s must not be negative", KeyRedisMaxLen)
	}
	if c.StatusInterval <= 0 {
		return fmt.Errorf("%s must be positive", KeyStatusIntervalSeconds)
	}
	return nil
}

func parseProviderID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID: %w", KeyProviderID, err)
	}
	return id, nil
}
