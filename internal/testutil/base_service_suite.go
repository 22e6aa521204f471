package testutil

import (
	"context"
	"time"

	"github.com/reelkit/reelkit/internal/cache"
	"github.com/reelkit/reelkit/internal/catalog"
	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/domain/billingevent"
	"github.com/reelkit/reelkit/internal/domain/ledger"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
	"github.com/reelkit/reelkit/internal/types"
	"github.com/reelkit/reelkit/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	LedgerRepo       ledger.Repository
	BillingEventRepo billingevent.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	db      postgres.IClient
	logger  *logger.Logger
	config  *config.Configuration
	catalog *catalog.Catalog
	cache   cache.Cache
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Plans = []config.PlanConfig{
		{PriceID: "price_starter", Tier: types.TierStarter, UGCCredits: 5, FacelessCredits: 10, MonthlyPrice: decimal.NewFromInt(19)},
		{PriceID: "price_professional", Tier: types.TierProfessional, UGCCredits: 20, FacelessCredits: 40, MonthlyPrice: decimal.NewFromInt(49)},
		{PriceID: "price_business", Tier: types.TierBusiness, UGCCredits: 50, FacelessCredits: 100, MonthlyPrice: decimal.NewFromInt(99)},
		{PriceID: "price_scale", Tier: types.TierScale, UGCCredits: 150, FacelessCredits: 300, MonthlyPrice: decimal.NewFromInt(299)},
	}
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.catalog = catalog.NewCatalog(cfg)
	s.cache = cache.Initialize(cfg, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		LedgerRepo:       NewInMemoryLedgerStore(),
		BillingEventRepo: NewInMemoryBillingEventStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.LedgerRepo.(*InMemoryLedgerStore).Clear()
	s.stores.BillingEventRepo.(*InMemoryBillingEventStore).Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetCatalog returns the plan catalog built from the test config
func (s *BaseServiceTestSuite) GetCatalog() *catalog.Catalog {
	return s.catalog
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
