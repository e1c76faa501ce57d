// Package pricing looks up unit prices in the AWS Price List API.
package pricing

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/pricing"
	"github.com/aws/aws-sdk-go/service/pricing/pricingiface"

	internalaws "costdelta/internal/aws"
	"costdelta/internal/config"
	"costdelta/internal/estimator"
	"costdelta/internal/logging"
)

// ErrNoMatch is returned when no product with a usable price matched the filters
var ErrNoMatch = errors.New("no matching price found")

const (
	// DefaultEndpointRegion hosts the Price List API
	DefaultEndpointRegion = "us-east-1"

	pageSize = 100
	maxPages = 20
)

// Client implements estimator.PriceLookup on top of the Price List API
type Client struct {
	api         pricingiface.PricingAPI
	rateLimiter *internalaws.RateLimiter
	selector    Selector
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithSelector sets the quote selection strategy
func WithSelector(s Selector) ClientOption {
	return func(c *Client) {
		c.selector = s
	}
}

// WithRateLimiter replaces the default rate limiter
func WithRateLimiter(rl *internalaws.RateLimiter) ClientOption {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// NewClient wraps a Price List API client
func NewClient(api pricingiface.PricingAPI, opts ...ClientOption) *Client {
	c := &Client{
		api:      api,
		selector: FirstNonZeroUSD,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rateLimiter == nil {
		c.rateLimiter = internalaws.NewRateLimiter(&config.DefaultRateLimitConfig)
	}
	return c
}

// NewClientFromSession creates a Client talking to the Price List endpoint
// in endpointRegion, which only exists in a few regions.
func NewClientFromSession(sess *session.Session, endpointRegion string, opts ...ClientOption) *Client {
	if endpointRegion == "" {
		endpointRegion = DefaultEndpointRegion
	}
	api := pricing.New(sess, awssdk.NewConfig().WithRegion(endpointRegion))
	return NewClient(api, opts...)
}

// Close releases the rate limiter
func (c *Client) Close() {
	c.rateLimiter.Stop()
}

var _ estimator.PriceLookup = (*Client)(nil)

// Lookup returns the quote of the product matching filters in region.
// A location filter for the region is added unless one is given.
func (c *Client) Lookup(ctx context.Context, service string, filters []estimator.Filter, region string) (*estimator.Quote, error) {
	input, err := c.productsInput(service, filters, region)
	if err != nil {
		return nil, err
	}

	var seen []Dimension
	for page := 0; page < maxPages; page++ {
		var output *pricing.GetProductsOutput
		err := c.rateLimiter.Execute(ctx, "GetProducts", func() error {
			var callErr error
			output, callErr = c.api.GetProductsWithContext(ctx, input)
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get products for %s: %w", service, err)
		}

		for _, raw := range output.PriceList {
			dims, err := decodeItem(raw)
			if err != nil {
				logging.Debug("Skipping unparsable price list item", map[string]interface{}{
					"service": service,
					"error":   err.Error(),
				})
				continue
			}
			seen = append(seen, dims...)
		}

		if d, ok := c.selector.Select(seen, false); ok {
			return quoteFrom(d), nil
		}

		if awssdk.StringValue(output.NextToken) == "" {
			break
		}
		input.NextToken = output.NextToken
	}

	if d, ok := c.selector.Select(seen, true); ok {
		return quoteFrom(d), nil
	}
	return nil, fmt.Errorf("%s %v in %s: %w", service, filters, region, ErrNoMatch)
}

func (c *Client) productsInput(service string, filters []estimator.Filter, region string) (*pricing.GetProductsInput, error) {
	if service == "" {
		return nil, fmt.Errorf("service code is required")
	}

	hasLocation := false
	apiFilters := make([]*pricing.Filter, 0, len(filters)+1)
	for _, f := range filters {
		if f.Field == "location" || f.Field == "regionCode" {
			hasLocation = true
		}
		apiFilters = append(apiFilters, termMatch(f.Field, f.Value))
	}

	if !hasLocation {
		location, ok := LocationForRegion(region)
		if !ok {
			return nil, fmt.Errorf("unknown region: %s", region)
		}
		apiFilters = append(apiFilters, termMatch("location", location))
	}

	return &pricing.GetProductsInput{
		ServiceCode:   awssdk.String(service),
		Filters:       apiFilters,
		FormatVersion: awssdk.String("aws_v1"),
		MaxResults:    awssdk.Int64(pageSize),
	}, nil
}

func termMatch(field, value string) *pricing.Filter {
	return &pricing.Filter{
		Type:  awssdk.String(pricing.FilterTypeTermMatch),
		Field: awssdk.String(field),
		Value: awssdk.String(value),
	}
}

func quoteFrom(d Dimension) *estimator.Quote {
	return &estimator.Quote{
		UnitPrice:   d.USD,
		Unit:        d.Unit,
		Description: d.Description,
	}
}

// Service is a Price List service code with its filterable attributes
type Service struct {
	Code       string   `json:"code"`
	Attributes []string `json:"attributes"`
}

// Services lists the service codes known to the Price List API
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var services []Service
	input := &pricing.DescribeServicesInput{FormatVersion: awssdk.String("aws_v1")}

	for {
		var output *pricing.DescribeServicesOutput
		err := c.rateLimiter.Execute(ctx, "DescribeServices", func() error {
			var callErr error
			output, callErr = c.api.DescribeServicesWithContext(ctx, input)
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe services: %w", err)
		}

		for _, s := range output.Services {
			services = append(services, Service{
				Code:       awssdk.StringValue(s.ServiceCode),
				Attributes: awssdk.StringValueSlice(s.AttributeNames),
			})
		}

		if awssdk.StringValue(output.NextToken) == "" {
			return services, nil
		}
		input.NextToken = output.NextToken
	}
}

// AttributeValues lists the values an attribute takes for a service, which
// is what resource map filters match against.
func (c *Client) AttributeValues(ctx context.Context, service, attribute string) ([]string, error) {
	var values []string
	input := &pricing.GetAttributeValuesInput{
		ServiceCode:   awssdk.String(service),
		AttributeName: awssdk.String(attribute),
	}

	for {
		var output *pricing.GetAttributeValuesOutput
		err := c.rateLimiter.Execute(ctx, "GetAttributeValues", func() error {
			var callErr error
			output, callErr = c.api.GetAttributeValuesWithContext(ctx, input)
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get values of %s for %s: %w", attribute, service, err)
		}

		for _, v := range output.AttributeValues {
			values = append(values, awssdk.StringValue(v.Value))
		}

		if awssdk.StringValue(output.NextToken) == "" {
			return values, nil
		}
		input.NextToken = output.NextToken
	}
}
