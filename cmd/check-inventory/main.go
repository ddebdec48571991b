// check-inventory validates the provisioning inventory file before the
// automation pipeline runs against it: YAML syntax, required structure,
// unresolved placeholder markers, and IP/CIDR field formats.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cluster-preflight/internal/cli"
	"cluster-preflight/internal/inventory"
)

const defaultInventoryPath = "inventory.yml"

type options struct {
	inventory string
}

func main() {
	cli.Exit(run())
}

func parseFlags() *options {
	programOptions := &options{}
	flag.StringVar(&programOptions.inventory, "inventory", defaultInventoryPath, "Path to inventory file")
	flag.Parse()
	return programOptions
}

func run() error {
	return validateInventory(parseFlags().inventory, os.Stdout)
}

func validateInventory(inventoryPath string, out io.Writer) error {
	fmt.Fprintf(out, "Validating inventory file: %s\n", inventoryPath)
	fmt.Fprintln(out, strings.Repeat("-", 60))

	document, err := inventory.Load(inventoryPath)
	if err != nil {
		return cli.Failf(1, "%w", err)
	}
	fmt.Fprintln(out, "[OK] YAML syntax is valid")

	structureErrors, structureWarnings := inventory.ValidateStructure(document)
	if len(structureErrors) > 0 {
		fmt.Fprintln(out, "\n[FAIL] Structure validation failed:")
		for _, finding := range structureErrors {
			fmt.Fprintf(out, "  ERROR: %s\n", finding.Message)
		}
	} else {
		fmt.Fprintln(out, "[OK] Inventory structure is valid")
	}

	if len(structureWarnings) > 0 {
		fmt.Fprintln(out, "\n[WARN] Warnings:")
		for _, finding := range structureWarnings {
			fmt.Fprintf(out, "  WARNING: %s\n", finding.Message)
		}
	}

	placeholders := inventory.FindPlaceholders(document)
	if len(placeholders) > 0 {
		fmt.Fprintln(out, "\n[WARN] Found placeholder values that need to be replaced:")
		for _, placeholder := range placeholders {
			fmt.Fprintf(out, "  %s: %s\n", placeholder.Path, placeholder.Value)
		}
		fmt.Fprintln(out, "\n  Please replace all placeholder values with actual values.")
	} else {
		fmt.Fprintln(out, "[OK] No placeholder values found")
	}

	// Unresolved placeholders would make every address-format finding
	// noise, so the semantic pass only runs on a fully substituted file.
	var addressErrors []inventory.Finding
	if len(placeholders) == 0 {
		addressErrors = inventory.ValidateAddresses(document)
		if len(addressErrors) > 0 {
			fmt.Fprintln(out, "\n[FAIL] IP address validation failed:")
			for _, finding := range addressErrors {
				fmt.Fprintf(out, "  ERROR: %s\n", finding.Message)
			}
		} else {
			fmt.Fprintln(out, "[OK] IP address formats are valid")
		}
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("-", 60))
	totalErrors := len(structureErrors) + len(addressErrors)
	switch {
	case totalErrors == 0 && len(placeholders) == 0:
		fmt.Fprintln(out, "[OK] Inventory file is valid and ready to use!")
		return nil
	case len(placeholders) > 0:
		fmt.Fprintln(out, "[WARN] Inventory file has placeholder values that need to be replaced.")
		return &cli.StatusError{Code: 1}
	default:
		fmt.Fprintf(out, "[FAIL] Inventory file has %d error(s) that need to be fixed.\n", totalErrors)
		return &cli.StatusError{Code: 1}
	}
}
