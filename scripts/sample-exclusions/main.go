package main

import (
	"context"
	"fmt"
	"log"

	"coupongen/internal/coupon"
	"coupongen/internal/export"
	"coupongen/internal/storage"

	"github.com/rs/zerolog"
)

// Writes sample exclusion files under data/ for local runs:
//
//	GENERATOR_EXCLUSION_KEYS=exclusions/issued-1.csv.gz,exclusions/issued-2.csv
//
// issued-1 is in export format (header row, gzip); issued-2 is a bare list.
// Both hold codes of length 6 starting with "AB", so a request for
// length 6, initials "AB" has 1296 - 5 codes available.
func main() {
	ctx := context.Background()
	logger := zerolog.Nop()

	store, err := storage.NewLocalStorage("data", logger)
	if err != nil {
		log.Fatalf("Failed to open data directory: %v", err)
	}

	files := map[string][]string{
		"exclusions/issued-1.csv.gz": {"AB0000", "AB0001", "ABZZZZ"},
		"exclusions/issued-2.csv":    {"AB1234", "ABQWER", "ABZZZZ"},
	}

	exporter := export.NewCSVExporter(logger)
	for key, codes := range files {
		n, err := exporter.ToStorage(ctx, store, key, coupon.Codes(codes))
		if err != nil {
			log.Fatalf("Failed to write %s: %v", key, err)
		}
		fmt.Printf("Created %s with %d codes\n", key, n)
	}

	loader := coupon.NewStorageLoader(store, "local", logger)
	set, err := coupon.LoadAll(ctx, loader, []string{"exclusions/issued-1.csv.gz", "exclusions/issued-2.csv"})
	if err != nil {
		log.Fatalf("Failed to load sample files back: %v", err)
	}
	fmt.Printf("\n%d distinct codes excluded (ABZZZZ is in both files)\n", set.Size())
}
