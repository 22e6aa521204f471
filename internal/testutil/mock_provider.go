package testutil

import (
	"context"

	ierr "github.com/reelkit/reelkit/internal/errors"
	stripeclient "github.com/reelkit/reelkit/internal/integration/stripe"
)

// MockProviderClient is a canned-response stand-in for the billing
// provider API.
type MockProviderClient struct {
	Subscriptions map[string]*stripeclient.SubscriptionInfo
	Customers     map[string]*stripeclient.CustomerInfo

	// Err, when set, is returned by every call to simulate provider
	// outages.
	Err error
}

// NewMockProviderClient creates an empty mock provider client
func NewMockProviderClient() *MockProviderClient {
	return &MockProviderClient{
		Subscriptions: make(map[string]*stripeclient.SubscriptionInfo),
		Customers:     make(map[string]*stripeclient.CustomerInfo),
	}
}

func (m *MockProviderClient) GetSubscription(_ context.Context, subscriptionID string) (*stripeclient.SubscriptionInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if sub, ok := m.Subscriptions[subscriptionID]; ok {
		return sub, nil
	}
	return nil, ierr.NewError("subscription not found").
		WithHint("Unable to retrieve Stripe subscription").
		Mark(ierr.ErrSystem)
}

func (m *MockProviderClient) GetCustomer(_ context.Context, customerID string) (*stripeclient.CustomerInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if cust, ok := m.Customers[customerID]; ok {
		return cust, nil
	}
	return nil, ierr.NewError("customer not found").
		WithHint("Unable to retrieve Stripe customer").
		Mark(ierr.ErrSystem)
}
