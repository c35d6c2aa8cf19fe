/*
seed.go - Built-in demo catalog

PURPOSE:
  A fresh database has no phones to browse. DefaultPhones returns a small
  representative catalog spanning all three categories so a new install
  (or a test) has something to save toward. Prices are whole rubles.
*/
package catalog

import "github.com/kopichu/savings-engine/accrual"

// DefaultPhones returns the built-in demo catalog. IDs are stable so
// reseeding an existing database is idempotent.
func DefaultPhones() []Phone {
	return []Phone{
		{
			ID:          "phone-iphone-15-pro",
			Brand:       "Apple",
			Model:       "iPhone 15 Pro",
			Price:       accrual.NewMoney(119990),
			Description: "Titanium body, A17 Pro.",
			Specifications: Specifications{
				Storage: "256GB", RAM: "8GB", Screen: "6.1\"",
				Camera: "48MP", Battery: "3274mAh", Processor: "A17 Pro",
			},
			Category:   CategoryFlagship,
			InStock:    true,
			Popularity: 98,
		},
		{
			ID:          "phone-galaxy-s24",
			Brand:       "Samsung",
			Model:       "Galaxy S24",
			Price:       accrual.NewMoney(89990),
			Description: "Compact flagship with Galaxy AI.",
			Specifications: Specifications{
				Storage: "256GB", RAM: "8GB", Screen: "6.2\"",
				Camera: "50MP", Battery: "4000mAh", Processor: "Exynos 2400",
			},
			Category:   CategoryFlagship,
			InStock:    true,
			Popularity: 91,
		},
		{
			ID:          "phone-pixel-8a",
			Brand:       "Google",
			Model:       "Pixel 8a",
			Price:       accrual.NewMoney(54990),
			Description: "Seven years of updates, Tensor G3.",
			Specifications: Specifications{
				Storage: "128GB", RAM: "8GB", Screen: "6.1\"",
				Camera: "64MP", Battery: "4492mAh", Processor: "Tensor G3",
			},
			Category:   CategoryMidrange,
			InStock:    true,
			Popularity: 77,
		},
		{
			ID:          "phone-nothing-2a",
			Brand:       "Nothing",
			Model:       "Phone (2a)",
			Price:       accrual.NewMoney(32990),
			Description: "Glyph lights, clean Android.",
			Specifications: Specifications{
				Storage: "128GB", RAM: "8GB", Screen: "6.7\"",
				Camera: "50MP", Battery: "5000mAh", Processor: "Dimensity 7200 Pro",
			},
			Category:   CategoryMidrange,
			InStock:    true,
			Popularity: 64,
		},
		{
			ID:          "phone-redmi-note-13",
			Brand:       "Xiaomi",
			Model:       "Redmi Note 13",
			Price:       accrual.NewMoney(19990),
			Description: "AMOLED on a budget.",
			Specifications: Specifications{
				Storage: "128GB", RAM: "6GB", Screen: "6.67\"",
				Camera: "108MP", Battery: "5000mAh", Processor: "Snapdragon 685",
			},
			Category:   CategoryBudget,
			InStock:    true,
			Popularity: 82,
		},
		{
			ID:          "phone-galaxy-a15",
			Brand:       "Samsung",
			Model:       "Galaxy A15",
			Price:       accrual.NewMoney(14990),
			Description: "Entry Galaxy with a big battery.",
			Specifications: Specifications{
				Storage: "128GB", RAM: "4GB", Screen: "6.5\"",
				Camera: "50MP", Battery: "5000mAh", Processor: "Helio G99",
			},
			Category:   CategoryBudget,
			InStock:    true,
			Popularity: 58,
		},
		{
			// Kept for catalog realism: out-of-stock phones exist but never
			// show up in listings.
			ID:         "phone-iphone-14",
			Brand:      "Apple",
			Model:      "iPhone 14",
			Price:      accrual.NewMoney(69990),
			Category:   CategoryMidrange,
			InStock:    false,
			Popularity: 70,
		},
	}
}
