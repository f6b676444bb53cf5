// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape of a listings seed file.
type seedFile struct {
	Properties []seedProperty `yaml:"properties"`
}

type seedProperty struct {
	Country     string   `yaml:"country"`
	City        string   `yaml:"city"`
	Street      string   `yaml:"street"`
	Number      int      `yaml:"number"`
	Description string   `yaml:"description"`
	Contract    string   `yaml:"contract"`
	Images      []string `yaml:"images"`
	ListPrice   int64    `yaml:"listprice"`
	Currency    string   `yaml:"currency"`
}

// SeedFromFile loads listings from a YAML file into the store. Existing
// listings at the same address are overwritten; their status resets to NEW.
// Used to preload demo data at startup.
func (s *Service) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for _, sp := range seed.Properties {
		_, err := s.AddProperty(ctx, AddPropertyInput{
			Country:     sp.Country,
			City:        sp.City,
			Street:      sp.Street,
			Number:      sp.Number,
			Description: sp.Description,
			Contract:    sp.Contract,
			Images:      sp.Images,
			ListPrice:   sp.ListPrice,
			Currency:    sp.Currency,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to seed property %s/%s/%s/%d: %w",
				sp.Country, sp.City, sp.Street, sp.Number, err)
		}
	}

	getLog().Info().Int("count", len(seed.Properties)).Str("file", path).Msg("Seeded property listings")
	return len(seed.Properties), nil
}
