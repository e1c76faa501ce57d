package aws

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"costdelta/internal/logging"
)

// httpTimeout bounds a single AWS API round trip
const httpTimeout = 25 * time.Second

// NewSession creates a new AWS session with the specified profile and region.
// An empty profile uses the default credential chain.
func NewSession(profile string, region string) (*session.Session, error) {
	cfg := aws.NewConfig().WithHTTPClient(&http.Client{Timeout: httpTimeout})
	if region != "" {
		cfg = cfg.WithRegion(region)
	}

	opts := session.Options{
		Config:            *cfg,
		Profile:           profile,
		SharedConfigState: session.SharedConfigEnable,
	}

	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	logging.Debug("Created AWS session", map[string]interface{}{
		"profile": profile,
		"region":  aws.StringValue(sess.Config.Region),
	})
	return sess, nil
}

// GetSessionInRegion creates a new session in the specified region using credentials from an existing session
func GetSessionInRegion(sess *session.Session, region string) (*session.Session, error) {
	if region == "" || aws.StringValue(sess.Config.Region) == region {
		return sess, nil
	}

	newSess, err := session.NewSession(sess.Config.Copy().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return newSess, nil
}
