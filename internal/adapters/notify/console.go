package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyCopy imprime una línea por copia cerrada.
func (c *Console) NotifyCopy(_ context.Context, copy domain.CopyOrder) error {
	now := time.Now().Format("15:04:05")

	market := copy.Slug
	if market == "" {
		market = shortToken(copy.TokenID)
	}

	switch {
	case domain.IsSkipped(copy.Status):
		fmt.Fprintf(c.out, "[%s] %s %s whale:%.0f@%.3f → %s\n",
			now, copy.Side, truncate(market, 32), copy.WhaleShares, copy.WhalePrice, copy.Status)
	default:
		fmt.Fprintf(c.out, "[%s] %s %s whale:%.0f@%.3f copy:%.2f@%.3f att:%d → %s\n",
			now, copy.Side, truncate(market, 32),
			copy.WhaleShares, copy.WhalePrice,
			copy.CopySize, copy.LimitPrice, copy.Attempts, copy.Status)
	}
	return nil
}

// Summary imprime el resumen de la sesión: contadores y últimas copias.
func (c *Console) Summary(_ context.Context, stats domain.CopyStats, recent []domain.CopyOrder) error {
	fmt.Fprintf(c.out, "\n=== SESSION SUMMARY ===\n")
	fmt.Fprintf(c.out, "  copies:%d ok:%d partial:%d resting:%d skipped:%d failed:%d\n",
		stats.Total, stats.Successes, stats.Partials, stats.Resting, stats.Skipped, stats.Failed)
	fmt.Fprintf(c.out, "  filled: %.2f shares  notional: $%.2f\n",
		stats.FilledShares, stats.NotionalUSD)

	if len(recent) == 0 {
		fmt.Fprintln(c.out)
		return nil
	}

	if c.table {
		c.printTable(recent)
	} else {
		c.printCompact(recent)
	}
	fmt.Fprintln(c.out)
	return nil
}

// printTable imprime las últimas copias en tabla.
func (c *Console) printTable(recent []domain.CopyOrder) {
	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Side", "Market", "Whale", "Copy", "Price", "Filled", "Att", "Status")

	for _, cp := range recent {
		market := cp.Slug
		if market == "" {
			market = shortToken(cp.TokenID)
		}
		table.Append(
			cp.CreatedAt.Local().Format("15:04:05"),
			string(cp.Side),
			truncate(market, 36),
			fmt.Sprintf("%.0f@%.3f", cp.WhaleShares, cp.WhalePrice),
			fmt.Sprintf("%.2f", cp.CopySize),
			fmt.Sprintf("%.3f", cp.LimitPrice),
			fmt.Sprintf("%.2f", cp.FilledSize),
			fmt.Sprintf("%d", cp.Attempts),
			truncate(cp.Status, 28),
		)
	}

	table.Render()
}

// printCompact imprime las últimas copias en una línea cada una.
func (c *Console) printCompact(recent []domain.CopyOrder) {
	for _, cp := range recent {
		market := cp.Slug
		if market == "" {
			market = shortToken(cp.TokenID)
		}
		fmt.Fprintf(c.out, "  %s %s %-32s %.2f@%.3f → %s\n",
			cp.CreatedAt.Local().Format("15:04:05"), cp.Side,
			truncate(market, 32), cp.CopySize, cp.LimitPrice, truncate(cp.Status, 28))
	}
}

// Divergence imprime la comparación de valor de cartera contra la ballena.
func (c *Console) Divergence(copierValue, whaleValue float64) {
	if whaleValue <= 0 {
		return
	}
	ratio := copierValue / whaleValue * 100
	fmt.Fprintf(c.out, "  portfolio: you $%.2f | whale $%.2f (%.3f%% of whale)\n",
		copierValue, whaleValue, ratio)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func shortToken(tokenID string) string {
	if len(tokenID) <= 12 {
		return tokenID
	}
	return tokenID[:12] + "..."
}
