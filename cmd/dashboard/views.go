package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/candle-trader/internal/strategy"
	"github.com/rxtech-lab/candle-trader/internal/types"
)

// maxTradeRows bounds the trades table to the most recent exits.
const maxTradeRows = 10

// listItem implements list.Item interface for the strategy list.
type listItem struct {
	kind        strategy.Kind
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// NewStrategyList creates a list of the built-in strategies.
func NewStrategyList() list.Model {
	kinds := strategy.Kinds()
	items := make([]list.Item, 0, len(kinds))

	for _, kind := range kinds {
		info, err := strategy.GetInfo(kind)
		if err != nil {
			continue
		}

		items = append(items, listItem{
			kind:        kind,
			name:        fmt.Sprintf("%s (%s)", info.Name, kind),
			description: info.Description,
		})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Strategy"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewTradesTable creates a table of closed trades.
func NewTradesTable() table.Model {
	columns := []table.Column{
		{Title: "Exit Time", Width: 10},
		{Title: "Side", Width: 6},
		{Title: "Qty", Width: 6},
		{Title: "Price", Width: 14},
		{Title: "Profit", Width: 14},
		{Title: "Total", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(maxTradeRows+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell

	t.SetStyles(s)

	return t
}

// UpdateTradeRows shows trades newest first.
func UpdateTradeRows(t table.Model, trades []types.TradeExit) table.Model {
	rows := make([]table.Row, 0, len(trades))

	for i := len(trades) - 1; i >= 0; i-- {
		trade := trades[i]

		rows = append(rows, table.Row{
			trade.Timestamp.Format("15:04:05"),
			string(trade.Direction),
			fmt.Sprintf("%d", trade.Quantity),
			fmt.Sprintf("%.4f", trade.Price),
			fmt.Sprintf("%+.4f", trade.Profit),
			fmt.Sprintf("%+.4f", trade.TotalRealizedProfit),
		})
	}

	t.SetRows(rows)

	return t
}

// renderSummary renders the statistics a strategy reports when it stops.
func renderSummary(stopped types.StrategyStopped) string {
	lines := []string{
		TitleStyle.Render("Final statistics"),
		LabelStyle.Render("Trades") + fmt.Sprintf("%d", stopped.CompletedTrades),
		LabelStyle.Render("Winning") + fmt.Sprintf("%d", stopped.WinningTrades),
		LabelStyle.Render("Win rate") + fmt.Sprintf("%.2f%%", stopped.WinRate),
		LabelStyle.Render("Realized PnL") + FormatProfit(stopped.TotalRealizedProfit),
		LabelStyle.Render("Candles") + fmt.Sprintf("%d", stopped.CandlesProcessed),
	}

	return SummaryStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
