package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/database/seeders"
)

// pdv export [file]: write the backup document to a file or stdout.
func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export products, customers and sales as a JSON backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootApp()
			if err != nil {
				return err
			}
			data, err := app.Backups.Export()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", args[0])
			return nil
		},
	}
}

// pdv import <file>: replace the collections present in a backup.
func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON backup (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			app, err := bootApp()
			if err != nil {
				return err
			}
			if err := app.Backups.Import(data); err != nil {
				return err
			}
			return printInfo(cmd, app.Backups)
		},
	}
}

// pdv clear: erase everything after two confirmations and the typed phrase.
func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Erase all products, customers and sales",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			ask := func(prompt string) string {
				fmt.Fprint(out, prompt)
				if !in.Scan() {
					return ""
				}
				return strings.TrimSpace(in.Text())
			}
			yes := func(answer string) bool {
				a := strings.ToLower(answer)
				return a == "s" || a == "sim" || a == "y" || a == "yes"
			}

			c := services.Confirmation{
				FirstConfirm: yes(ask("Todos os produtos, clientes e vendas serão apagados. Continuar? [s/N] ")),
			}
			if !c.FirstConfirm {
				fmt.Fprintln(out, "Cancelado.")
				return nil
			}
			c.SecondConfirm = yes(ask("Esta ação não pode ser desfeita. Tem certeza? [s/N] "))
			if !c.SecondConfirm {
				fmt.Fprintln(out, "Cancelado.")
				return nil
			}
			c.Phrase = ask(fmt.Sprintf("Digite %s para confirmar: ", services.ConfirmPhrase))

			app, err := bootApp()
			if err != nil {
				return err
			}
			if err := app.Backups.ClearAll(c); err != nil {
				return err
			}
			fmt.Fprintln(out, "Todos os dados foram apagados.")
			return nil
		},
	}
}

// pdv info: record counts and storage usage.
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show record counts and storage usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootApp()
			if err != nil {
				return err
			}
			return printInfo(cmd, app.Backups)
		},
	}
}

func printInfo(cmd *cobra.Command, backups *services.BackupService) error {
	info, err := backups.Info()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Driver:    %s\n", info.Driver)
	fmt.Fprintf(out, "Produtos:  %d\n", info.Products)
	fmt.Fprintf(out, "Clientes:  %d\n", info.Customers)
	fmt.Fprintf(out, "Vendas:    %d\n", info.Sales)
	fmt.Fprintf(out, "Tamanho:   %s\n", info.TotalSize)
	return nil
}

// pdv report <kind>: print a report as JSON, or write a workbook.
func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "report <sales|stock|categories|margins|customers|dashboard|products>",
		Short:     "Print a report as JSON, or write it as .xlsx with --xlsx",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"sales", "stock", "categories", "margins", "customers", "dashboard", "products"},
		RunE: func(cmd *cobra.Command, args []string) error {
			startFlag, _ := cmd.Flags().GetString("start")
			endFlag, _ := cmd.Flags().GetString("end")
			xlsxPath, _ := cmd.Flags().GetString("xlsx")

			start, end, err := services.ParsePeriod(startFlag, endFlag)
			if err != nil {
				return err
			}
			app, err := bootApp()
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				var wb services.Workbook
				switch args[0] {
				case "sales":
					wb, err = app.Sheets.SalesWorkbook(start, end)
				case "products", "stock", "categories", "margins":
					wb, err = app.Sheets.ProductsWorkbook()
				case "customers":
					wb, err = app.Sheets.CustomersWorkbook()
				default:
					return fmt.Errorf("no workbook for %q", args[0])
				}
				if err != nil {
					return err
				}
				data, err := wb.Bytes()
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", xlsxPath)
				return nil
			}

			var report interface{}
			switch args[0] {
			case "sales":
				report = app.Reports.Sales(start, end)
			case "stock", "products":
				report = app.Reports.Stock()
			case "categories":
				report = app.Reports.Categories()
			case "margins":
				report = app.Reports.Margins()
			case "customers":
				report = app.Reports.Customers()
			case "dashboard":
				report = app.Reports.Dashboard(app.Now())
			default:
				return fmt.Errorf("unknown report %q", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().String("start", "", "period start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().String("end", "", "period end (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().String("xlsx", "", "write the report workbook to this file")
	return cmd
}

// pdv seed: load the demo catalogue and customers.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo products and customers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootApp()
			if err != nil {
				return err
			}
			results, err := seeders.RunAll(app.DB)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "  • %s: %d created\n", r.Name, r.Created)
			}
			return err
		},
	}
}
