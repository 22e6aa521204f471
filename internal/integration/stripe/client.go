package stripe

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/reelkit/reelkit/internal/cache"
	"github.com/reelkit/reelkit/internal/config"
	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Client handles Stripe API access for the reconciliation engine.
type Client struct {
	client *stripe.Client
	cfg    *config.Configuration
	logger *logger.Logger
	cache  cache.Cache
}

// NewClient creates a new Stripe client. Outbound calls go through a
// retrying HTTP client so transient provider errors do not surface as
// webhook processing failures.
func NewClient(cfg *config.Configuration, logger *logger.Logger, cacheClient cache.Cache) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	stripe.SetHTTPClient(retryClient.StandardClient())

	stripeClient := stripe.NewClient(cfg.Stripe.SecretKey, nil)

	return &Client{
		client: stripeClient,
		cfg:    cfg,
		logger: logger,
		cache:  cacheClient,
	}
}

// SubscriptionInfo is the subset of a provider subscription the
// reconciliation engine needs.
type SubscriptionInfo struct {
	ID          string
	CustomerID  string
	PriceID     string
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// CustomerInfo is the subset of a provider customer the engine needs.
type CustomerInfo struct {
	ID    string
	Email string
}

// GetSubscription retrieves a subscription from Stripe. Period bounds
// live on the first subscription item.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	sub, err := c.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		c.logger.Errorw("failed to get Stripe subscription",
			"error", err,
			"subscription_id", subscriptionID)
		return nil, ierr.WithError(err).
			WithHint("Unable to retrieve Stripe subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrSystem)
	}

	info := &SubscriptionInfo{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.Customer != nil {
		info.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			info.PriceID = item.Price.ID
		}
		info.PeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		info.PeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
	}
	return info, nil
}

// GetCustomer retrieves a customer from Stripe, memoized in the cache.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*CustomerInfo, error) {
	cacheKey := cache.GenerateKey(cache.PrefixCustomer, customerID)
	if cached, found := c.cache.Get(ctx, cacheKey); found {
		if info, ok := cached.(*CustomerInfo); ok {
			return info, nil
		}
	}

	cust, err := c.client.V1Customers.Retrieve(ctx, customerID, nil)
	if err != nil {
		c.logger.Errorw("failed to get Stripe customer",
			"error", err,
			"customer_id", customerID)
		return nil, ierr.WithError(err).
			WithHint("Unable to retrieve Stripe customer").
			WithReportableDetails(map[string]any{
				"customer_id": customerID,
			}).
			Mark(ierr.ErrSystem)
	}

	info := &CustomerInfo{
		ID:    cust.ID,
		Email: cust.Email,
	}
	c.cache.Set(ctx, cacheKey, info, cache.DefaultExpiration)
	return info, nil
}

// ParseWebhookEvent parses a Stripe webhook event with signature verification
func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.Stripe.WebhookSecret, options)
	if err != nil {
		c.logger.Errorw("Stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrSignatureInvalid)
	}
	return &event, nil
}
