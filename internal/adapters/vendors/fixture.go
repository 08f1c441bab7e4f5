package vendors

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/zoramarket/cart-service/internal/domain"
	"github.com/zoramarket/cart-service/internal/ports"
	"gopkg.in/yaml.v3"
)

type fixtureFile struct {
	Vendors []fixtureVendor `yaml:"vendors"`
}

type fixtureVendor struct {
	ID              string `yaml:"id"`
	ShopName        string `yaml:"shop_name"`
	LogoURL         string `yaml:"logo_url"`
	DeliveryTimeMin int    `yaml:"delivery_time_min"`
	DeliveryTimeMax int    `yaml:"delivery_time_max"`
}

// FixtureDirectory answers vendor lookups from a static list, typically
// loaded from configs/vendors.yaml for local runs.
type FixtureDirectory struct {
	byID map[string]domain.VendorMetadata
}

func NewFixtureDirectory(vendors ...domain.VendorMetadata) *FixtureDirectory {
	byID := make(map[string]domain.VendorMetadata, len(vendors))
	for _, v := range vendors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			continue
		}
		v.ID = id
		byID[id] = v
	}
	return &FixtureDirectory{byID: byID}
}

func LoadFixtureDirectory(path string) (*FixtureDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vendor fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

func ParseFixtures(raw []byte) (*FixtureDirectory, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse vendor fixtures: %w", err)
	}
	out := make([]domain.VendorMetadata, 0, len(file.Vendors))
	for _, v := range file.Vendors {
		out = append(out, domain.VendorMetadata{
			ID:              v.ID,
			Name:            v.ShopName,
			LogoURL:         v.LogoURL,
			DeliveryTimeMin: v.DeliveryTimeMin,
			DeliveryTimeMax: v.DeliveryTimeMax,
		})
	}
	return NewFixtureDirectory(out...), nil
}

func (d *FixtureDirectory) GetByID(_ context.Context, vendorID string) (domain.VendorMetadata, error) {
	v, ok := d.byID[vendorID]
	if !ok {
		return domain.VendorMetadata{}, fmt.Errorf("vendor %q: %w", vendorID, domain.ErrNotFound)
	}
	return v, nil
}

func (d *FixtureDirectory) Len() int { return len(d.byID) }

var _ ports.VendorLookup = (*FixtureDirectory)(nil)
