package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/stockledger/internal/app"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	warningdomain "github.com/smallbiznis/stockledger/internal/warning/domain"
	"github.com/smallbiznis/stockledger/pkg/telemetry/correlation"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	sessionID string
	userID    string
)

var previewCmd = &cobra.Command{
	Use:     "preview <invoice-id>",
	Short:   "Show the move lines an invoice would post",
	Args:    cobra.ExactArgs(1),
	Example: "  stockledgerctl preview 1790566755731968000",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoice(cmd, args[0], func(ctx context.Context, svc invoicedomain.Service, id snowflake.ID) error {
			result, err := svc.PreviewMoveLines(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invoice %s (%s, %s)\n", result.Invoice.Number, result.Invoice.Type, result.Invoice.State)
			printLines(cmd.OutOrStdout(), result.Lines)
			return nil
		})
	},
}

var postCmd = &cobra.Command{
	Use:   "post <invoice-id>",
	Short: "Post an invoice to the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoice(cmd, args[0], func(ctx context.Context, svc invoicedomain.Service, id snowflake.ID) error {
			result, err := svc.PostInvoice(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.AlreadyPosted {
				fmt.Fprintf(out, "invoice %s already posted as move %s\n", result.Invoice.Number, result.Move.ID)
			} else {
				fmt.Fprintf(out, "invoice %s posted as move %s\n", result.Invoice.Number, result.Move.ID)
			}
			printLines(out, result.Move.Lines)
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{previewCmd, postCmd} {
		cmd.Flags().StringVar(&sessionID, "session", "", "Warning session id (generated when empty)")
		cmd.Flags().StringVar(&userID, "user", "", "User acknowledging warnings")
		rootCmd.AddCommand(cmd)
	}
}

func withInvoice(cmd *cobra.Command, rawID string, fn func(context.Context, invoicedomain.Service, snowflake.ID) error) error {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return fmt.Errorf("%w: %q", invoicedomain.ErrInvalidInvoiceID, rawID)
	}

	var svc invoicedomain.Service
	return runApp(cmd.Context(), func(ctx context.Context) error {
		session := strings.TrimSpace(sessionID)
		if session == "" {
			session = uuid.NewString()
		}
		ctx = txcontext.WithSession(ctx, session)
		if user := strings.TrimSpace(userID); user != "" {
			ctx = txcontext.WithUser(ctx, user)
		}
		ctx, _ = correlation.EnsureCorrelationID(ctx)
		collector := warningdomain.NewCollector()
		ctx = warningdomain.WithCollector(ctx, collector)

		err := fn(ctx, svc, id)
		printWarnings(cmd.ErrOrStderr(), collector.Warnings())
		return err
	}, app.Domain, fx.Populate(&svc))
}

func printLines(w io.Writer, lines []ledgerdomain.MoveLine) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tPARTY\tDEBIT\tCREDIT\tCURRENCY AMOUNT\tDESCRIPTION")
	for _, line := range lines {
		party := "-"
		if line.PartyID != nil {
			party = line.PartyID.String()
		}
		amount := "-"
		if line.AmountSecondCurrency.Valid {
			amount = line.AmountSecondCurrency.Decimal.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", line.AccountID, party, line.Debit, line.Credit, amount, line.Description)
	}
	_ = tw.Flush()
}

func printWarnings(w io.Writer, warnings []warningdomain.Warning) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning [%s]: %s\n", warning.Key, warning.Message)
	}
}
