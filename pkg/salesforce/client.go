// Package salesforce provides JWT-authenticated REST API access to Salesforce
// for syncing sourced leads.
package salesforce

import (
	"context"
	"maps"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
)

const serviceName = "salesforce"

// maxBatchSize is the Salesforce Collections API limit per request.
const maxBatchSize = 200

// Client defines the Salesforce API operations used to sync leads.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error)
	UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
}

// CollectionRecord is an existing record to update: its ID and the fields
// to overwrite.
type CollectionRecord struct {
	ID     string         `json:"Id"`
	Fields map[string]any `json:"fields"`
}

// body flattens the record into the shape the collections endpoint expects.
func (r CollectionRecord) body() map[string]any {
	m := make(map[string]any, len(r.Fields)+1)
	maps.Copy(m, r.Fields)
	m["Id"] = r.ID
	return m
}

// CollectionResult is the outcome of a single record in a collection operation.
type CollectionResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// ClientOption configures the Salesforce client.
type ClientOption func(*sfClient)

// WithRateLimit throttles API calls to rps with a burst of int(rps).
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient adapts *salesforce.Salesforce to Client. The library takes no
// context, so ctx only bounds the limiter wait.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewClient wraps an initialized go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Creds holds JWT bearer-flow credentials.
type Creds struct {
	LoginURL    string
	Username    string
	ConsumerKey string
	PrivateKey  string // PEM-encoded RSA key
}

// Connect authenticates with the JWT bearer flow and returns a Client.
func Connect(creds Creds, opts ...ClientOption) (Client, error) {
	if creds.ConsumerKey == "" {
		return nil, eris.New("sf: consumer key is required")
	}
	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		ConsumerKey:    creds.ConsumerKey,
		ConsumerRSAPem: creds.PrivateKey,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: init")
	}
	return NewClient(sf, opts...), nil
}

// do waits for the limiter, runs fn and reports its failure as an upstream
// error named after action.
func (c *sfClient) do(ctx context.Context, action string, fn func() error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrapf(err, "sf: %s: wait for rate limit", action)
		}
	}
	if err := fn(); err != nil {
		return resilience.Classify(serviceName, eris.Wrapf(err, "sf: %s", action))
	}
	return nil
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	return c.do(ctx, "query", func() error {
		return c.sf.Query(soql, out)
	})
}

func (c *sfClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
	var out []CollectionResult
	err := c.do(ctx, "insert collection "+sObjectName, func() error {
		res, err := c.sf.InsertCollection(sObjectName, records, maxBatchSize)
		if err != nil {
			return err
		}
		for _, r := range res.Results {
			cr := CollectionResult{ID: r.Id, Success: r.Success}
			for _, e := range r.Errors {
				cr.Errors = append(cr.Errors, e.Message)
			}
			out = append(out, cr)
		}
		return nil
	})
	return out, err
}

func (c *sfClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	bodies := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		bodies = append(bodies, rec.body())
	}

	var out []CollectionResult
	err := c.do(ctx, "update collection "+sObjectName, func() error {
		res, err := c.sf.UpdateCollection(sObjectName, bodies, maxBatchSize)
		if err != nil {
			return err
		}
		for _, r := range res.Results {
			cr := CollectionResult{ID: r.Id, Success: r.Success}
			for _, e := range r.Errors {
				cr.Errors = append(cr.Errors, e.Message)
			}
			out = append(out, cr)
		}
		return nil
	})
	return out, err
}
