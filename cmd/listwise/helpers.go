package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/listwise/internal/candidate"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/config"
	"github.com/Veraticus/listwise/internal/exchange"
	"github.com/Veraticus/listwise/internal/lock"
	"github.com/Veraticus/listwise/internal/metrics"
	"github.com/Veraticus/listwise/internal/model"
	"github.com/Veraticus/listwise/internal/pricing"
	"github.com/Veraticus/listwise/internal/rules"
	"github.com/Veraticus/listwise/internal/storage"
	"github.com/Veraticus/listwise/internal/strategy"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// initStorage opens the database named by database.path and migrates it.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// referenceSource is what the commands read reference data through: either the
// SQLite store or a YAML file loaded into memory.
type referenceSource struct {
	rules    rules.Source
	accounts candidate.AccountRegistry
	policy   strategy.PolicyStore
	store    *storage.SQLiteStorage
	ref      *config.ReferenceData
}

// openReference prefers reference.file when set and falls back to the database.
func openReference(ctx context.Context) (*referenceSource, error) {
	if path := viper.GetString("reference.file"); path != "" {
		ref, err := config.LoadReferenceData(path)
		if err != nil {
			return nil, common.NewUserError("Could not load reference data from "+path, err)
		}
		slog.Debug("Using reference file", "path", path)
		return &referenceSource{
			rules:    rules.NewRuleSet(ref.Rules),
			accounts: candidate.NewStaticRegistry(ref.Accounts),
			policy:   strategy.StaticPolicy{Settings: ref.Policy, Boosts: ref.Boosts},
			ref:      ref,
		}, nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &referenceSource{
		rules:    store,
		accounts: store,
		policy:   store,
		store:    store,
	}, nil
}

func (r *referenceSource) Close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

func (r *referenceSource) pricingTables(ctx context.Context) (*storage.PricingTables, error) {
	if r.store != nil {
		return r.store.LoadPricingTables(ctx)
	}
	return &storage.PricingTables{
		Tariffs:    pricing.NewMemoryTariffs(r.ref.HSTariffs),
		Surcharges: pricing.NewMemorySurcharges(r.ref.Surcharges),
		Shipping:   pricing.NewTierTable(r.ref.WeightTiers),
	}, nil
}

func (r *referenceSource) marketplaces(ctx context.Context) ([]model.MarketplaceFees, error) {
	if r.store != nil {
		return r.store.Marketplaces(ctx)
	}
	return r.ref.Marketplaces, nil
}

func (r *referenceSource) allRules(ctx context.Context) ([]model.PlatformRule, error) {
	if r.store != nil {
		ref, err := r.store.ReferenceData(ctx)
		if err != nil {
			return nil, err
		}
		return ref.Rules, nil
	}
	return r.ref.Rules, nil
}

// newLockService connects to Redis when redis.addr is set. Without it, locks
// live only for the lifetime of the process.
func newLockService(ctx context.Context) (lock.Service, error) {
	addr := viper.GetString("redis.addr")
	if addr == "" {
		slog.Debug("redis.addr not set, using in-process locks")
		return lock.NewMemoryService(), nil
	}
	svc, err := lock.NewRedisService(ctx, lock.RedisConfig{
		Addr:      addr,
		Password:  viper.GetString("redis.password"),
		DB:        viper.GetInt("redis.db"),
		KeyPrefix: viper.GetString("redis.key_prefix"),
		TTL:       viper.GetDuration("redis.ttl"),
	})
	if err != nil {
		return nil, common.NewUserError("Could not connect to the lock service at "+addr, err)
	}
	return svc, nil
}

func composerFromConfig() (strategy.BoostComposer, error) {
	switch name := viper.GetString("strategy.composer"); name {
	case "product", "":
		return strategy.ProductComposer, nil
	case "weighted":
		return strategy.WeightedSum(
			viper.GetFloat64("strategy.weights.performance"),
			viper.GetFloat64("strategy.weights.competition"),
			viper.GetFloat64("strategy.weights.category_fit"),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy.composer %q", common.ErrInvalidConfig, name)
	}
}

func newEngine(ctx context.Context, src *referenceSource, recorder *metrics.Recorder) (*strategy.Engine, error) {
	locks, err := newLockService(ctx)
	if err != nil {
		return nil, err
	}
	composer, err := composerFromConfig()
	if err != nil {
		return nil, err
	}
	cfg := strategy.DefaultConfig()
	cfg.Composer = composer
	cfg.Recorder = recorder
	cfg.MinGlobalScore = viper.GetFloat64("strategy.min_global_score")
	return strategy.NewWithConfig(locks, rules.NewChecker(src.rules), src.policy, cfg), nil
}

func newRateProvider(staticRate float64) (pricing.ExchangeRateProvider, error) {
	if staticRate > 0 {
		return exchange.StaticProvider{Rate: staticRate}, nil
	}
	url := viper.GetString("exchange.url")
	if url == "" {
		return nil, common.NewUserError("No exchange rate: pass --rate or set exchange.url", common.ErrMissingConfig)
	}
	provider, err := exchange.NewHTTPProvider(exchange.Config{
		URL:      url,
		Currency: viper.GetString("exchange.currency"),
		Timeout:  viper.GetDuration("exchange.timeout"),
		MaxAge:   viper.GetDuration("exchange.max_age"),
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// loadItems reads a YAML (or JSON) list of items.
func loadItems(path string) ([]model.Item, error) {
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	var items []model.Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, common.NewUserError("Items file is not a valid YAML list", err)
	}
	for i := range items {
		items[i].Condition = model.ParseCondition(string(items[i].Condition))
	}
	return items, nil
}

func writeMetrics(recorder *metrics.Recorder) {
	path := viper.GetString("metrics.textfile")
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(config.ExpandPath(path)); err != nil {
		slog.Warn("failed to write metrics textfile", "path", path, "error", err)
	}
}
