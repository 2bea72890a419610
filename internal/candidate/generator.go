// Package candidate enumerates the marketplace/account pairs an item could be listed on.
package candidate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// AccountRegistry lists the seller accounts configured for each platform.
type AccountRegistry interface {
	Platforms(ctx context.Context) ([]string, error)
	AccountsFor(ctx context.Context, platform string) ([]model.Account, error)
}

// Generator produces the platform × active-account cross product for an item.
// It applies no eligibility filtering beyond sales channel.
type Generator struct {
	registry AccountRegistry
}

// NewGenerator creates a generator backed by registry.
func NewGenerator(registry AccountRegistry) *Generator {
	return &Generator{registry: registry}
}

// Generate returns every candidate for item, sorted by platform then account ID.
// An item with no channels is eligible on every platform.
func (g *Generator) Generate(ctx context.Context, item model.Item) ([]model.MarketplaceCandidate, error) {
	platforms, err := g.registry.Platforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}

	var out []model.MarketplaceCandidate
	for _, platform := range platforms {
		accounts, err := g.registry.AccountsFor(ctx, platform)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts for %s: %w", platform, err)
		}
		for _, acct := range accounts {
			if !acct.Active {
				continue
			}
			// An item channel may name the platform itself or one of the account's channels.
			if !channelEligible(item.Channels, append([]string{platform}, acct.Channels...)...) {
				continue
			}
			out = append(out, acct.Candidate())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}

// channelEligible reports whether any of names appears in the item's channel list.
// Empty item channels match everything.
func channelEligible(itemChannels []string, names ...string) bool {
	if len(itemChannels) == 0 {
		return true
	}
	for _, ch := range itemChannels {
		for _, n := range names {
			if strings.EqualFold(ch, n) {
				return true
			}
		}
	}
	return false
}

// StaticRegistry is an AccountRegistry over a fixed account list.
type StaticRegistry struct {
	byPlatform map[string][]model.Account
	platforms  []string
}

// NewStaticRegistry groups accounts by platform, preserving first-seen platform order.
func NewStaticRegistry(accounts []model.Account) *StaticRegistry {
	r := &StaticRegistry{byPlatform: make(map[string][]model.Account)}
	for _, a := range accounts {
		if _, ok := r.byPlatform[a.Platform]; !ok {
			r.platforms = append(r.platforms, a.Platform)
		}
		r.byPlatform[a.Platform] = append(r.byPlatform[a.Platform], a)
	}
	return r
}

// Platforms implements AccountRegistry.
func (r *StaticRegistry) Platforms(context.Context) ([]string, error) {
	return append([]string(nil), r.platforms...), nil
}

// AccountsFor implements AccountRegistry.
func (r *StaticRegistry) AccountsFor(_ context.Context, platform string) ([]model.Account, error) {
	return r.byPlatform[platform], nil
}
