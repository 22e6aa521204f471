package service

import (
	"context"

	"github.com/reelkit/reelkit/internal/catalog"
	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/domain/billingevent"
	"github.com/reelkit/reelkit/internal/domain/ledger"
	stripeclient "github.com/reelkit/reelkit/internal/integration/stripe"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
	"github.com/reelkit/reelkit/internal/sentry"
)

// ProviderClient is the subset of the billing-provider API the
// reconciliation engine calls back into.
type ProviderClient interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*stripeclient.SubscriptionInfo, error)
	GetCustomer(ctx context.Context, customerID string) (*stripeclient.CustomerInfo, error)
}

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Sentry *sentry.Service

	Catalog  *catalog.Catalog
	Provider ProviderClient

	// Repositories
	LedgerRepo       ledger.Repository
	BillingEventRepo billingevent.Repository
}

// NewServiceParams assembles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	sentryService *sentry.Service,
	planCatalog *catalog.Catalog,
	provider *stripeclient.Client,
	ledgerRepo ledger.Repository,
	billingEventRepo billingevent.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		Sentry:           sentryService,
		Catalog:          planCatalog,
		Provider:         provider,
		LedgerRepo:       ledgerRepo,
		BillingEventRepo: billingEventRepo,
	}
}
