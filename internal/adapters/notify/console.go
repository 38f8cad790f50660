package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/alejandrodnm/qmoney/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
// Los retornos van a out; los trades omitidos a errOut para no romper el JSON.
type Console struct {
	out    io.Writer
	errOut io.Writer
	table  bool
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole crea un notificador que escribe a stdout/stderr.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, errOut: os.Stderr, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(out, errOut io.Writer, table bool) *Console {
	return &Console{out: out, errOut: errOut, table: table}
}

// Notify imprime los retornos ordenados en el modo configurado.
func (c *Console) Notify(_ context.Context, report domain.Report) error {
	returns := report.Returns()

	if c.table {
		if err := c.printTable(returns); err != nil {
			return fmt.Errorf("notify.Notify: %w", err)
		}
	} else if err := c.printJSON(returns); err != nil {
		return fmt.Errorf("notify.Notify: %w", err)
	}

	c.printOmitted(report.Omitted())
	return nil
}

// PrintSymbols imprime una lista de símbolos como array JSON.
func (c *Console) PrintSymbols(symbols []string) error {
	if symbols == nil {
		symbols = []string{}
	}
	return c.printJSON(symbols)
}

func (c *Console) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(b))
	return err
}

// printTable imprime los retornos en tabla, mejor primero.
func (c *Console) printTable(returns []domain.AnnualizedReturn) error {
	if len(returns) == 0 {
		_, err := fmt.Fprintln(c.out, "no annualized returns computed")
		return err
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Annualized", "Annualized %")
	for i, r := range returns {
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			fmt.Sprintf("%.6f", r.AnnualizedReturn),
			fmt.Sprintf("%.2f%%", r.AnnualizedReturnPercentage),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// printOmitted lista los trades que no aparecen en el output y por qué.
func (c *Console) printOmitted(omitted []domain.TradeOutcome) {
	if len(omitted) == 0 {
		return
	}
	fmt.Fprintf(c.errOut, "%d trade(s) omitted:\n", len(omitted))
	for _, o := range omitted {
		reason := "no price data in range"
		if o.Status == domain.OutcomeFailed && o.Err != nil {
			reason = o.Err.Error()
		}
		fmt.Fprintf(c.errOut, "  - %s (purchased %s): %s\n",
			o.Trade.Symbol, o.Trade.PurchaseDate.Format(domain.DateLayout), reason)
	}
}
