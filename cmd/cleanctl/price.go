package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/pricing"
	catalogService "github.com/jwalitptl/cleaning-api/internal/service/catalog"
)

// priceCmd prices a request against a catalog snapshot read from disk, so
// pricing rows can be checked before they are loaded into the database.
func priceCmd() *cobra.Command {
	var catalogPath, inputPath string

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Calculate a price breakdown from a catalog snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrice(catalogPath, inputPath, cmd.OutOrStdout(), time.Now())
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON pricing snapshot")
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON price request")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func runPrice(catalogPath, inputPath string, out io.Writer, now time.Time) error {
	var snap model.PricingSnapshot
	if err := readJSON(catalogPath, &snap); err != nil {
		return err
	}
	var req model.PriceRequest
	if err := readJSON(inputPath, &req); err != nil {
		return err
	}

	c, err := catalogService.ToCatalog(&snap)
	if err != nil {
		return err
	}
	b, err := pricing.Calculate(c, req.ToInput(), now)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
