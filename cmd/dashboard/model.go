package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/candle-trader/internal/config"
	"github.com/rxtech-lab/candle-trader/internal/trading/engine"
	"github.com/rxtech-lab/candle-trader/internal/types"
)

// Application states.
const (
	StateStrategySelect = iota
	StateLive
	StateFinished
)

// eventBuffer is how many messages a run may queue before it waits for the UI.
const eventBuffer = 256

// RunFunc runs settings to completion, reporting progress through callbacks.
type RunFunc func(ctx context.Context, settings config.Settings, callbacks engine.LiveTradingCallbacks) error

// Model is the Bubble Tea model of the live strategy dashboard.
type Model struct {
	state        int
	settings     config.Settings
	run          RunFunc
	strategyList list.Model
	tradesTable  table.Model

	// Run messages arrive on events. Sends give up once the UI has quit.
	events   chan tea.Msg
	runCtx   context.Context
	stopRun  context.CancelFunc
	quitCtx  context.Context
	quitRun  context.CancelFunc
	stopping bool

	started        optional.Option[types.StrategyStarted]
	lastCandle     optional.Option[types.MarketData]
	prevClose      float64
	indicators     optional.Option[types.IndicatorsUpdated]
	position       optional.Option[types.TradeEntry]
	trades         []types.TradeExit
	final          optional.Option[types.StrategyStopped]
	providerStatus types.ProviderConnectionStatus
	err            error
	runErr         error
	width          int
	height         int
}

// NewModel creates a dashboard for settings. With selectStrategy the user picks
// the strategy first, otherwise the run starts immediately.
func NewModel(settings config.Settings, run RunFunc, selectStrategy bool) Model {
	quitCtx, quitRun := context.WithCancel(context.Background())
	runCtx, stopRun := context.WithCancel(quitCtx)

	state := StateLive
	if selectStrategy {
		state = StateStrategySelect
	}

	return Model{
		state:        state,
		settings:     settings,
		run:          run,
		strategyList: NewStrategyList(),
		tradesTable:  NewTradesTable(),
		events:       make(chan tea.Msg, eventBuffer),
		runCtx:       runCtx,
		stopRun:      stopRun,
		quitCtx:      quitCtx,
		quitRun:      quitRun,
		started:      optional.None[types.StrategyStarted](),
		lastCandle:   optional.None[types.MarketData](),
		indicators:   optional.None[types.IndicatorsUpdated](),
		position:     optional.None[types.TradeEntry](),
		final:        optional.None[types.StrategyStopped](),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.state == StateLive {
		return m.startRun()
	}

	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitRun()

			return m, tea.Quit
		case "s":
			// Stop the strategy but keep the screen for its final statistics.
			if m.state == StateLive && !m.stopping {
				m.stopping = true
				m.stopRun()
			}

			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.strategyList.SetSize(msg.Width, msg.Height-4)
		m.tradesTable.SetWidth(msg.Width)

		return m, nil

	case CandleMsg:
		if m.lastCandle.IsSome() {
			m.prevClose = m.lastCandle.Unwrap().Close
		}

		m.lastCandle = optional.Some(msg.Data)

		return m, m.waitForMsg()

	case StrategyEventMsg:
		m.applyEvent(msg.Event)

		return m, m.waitForMsg()

	case RunErrorMsg:
		m.err = msg.Err

		return m, m.waitForMsg()

	case ProviderStatusMsg:
		m.providerStatus = msg.Status

		return m, m.waitForMsg()

	case RunFinishedMsg:
		m.state = StateFinished
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.runErr = msg.Err
		}

		return m, nil
	}

	if m.state == StateStrategySelect {
		return m.updateStrategySelect(msg)
	}

	return m, nil
}

func (m Model) updateStrategySelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.strategyList.SelectedItem().(listItem); ok {
			m.settings.Strategy = item.kind
			m.state = StateLive

			return m, m.startRun()
		}
	}

	var cmd tea.Cmd
	m.strategyList, cmd = m.strategyList.Update(msg)

	return m, cmd
}

func (m *Model) applyEvent(event types.StrategyEvent) {
	switch e := event.(type) {
	case types.StrategyStarted:
		m.started = optional.Some(e)
	case types.IndicatorsUpdated:
		m.indicators = optional.Some(e)
	case types.TradeEntry:
		m.position = optional.Some(e)
	case types.TradeExit:
		m.position = optional.None[types.TradeEntry]()

		m.trades = append(m.trades, e)
		if len(m.trades) > maxTradeRows {
			m.trades = m.trades[len(m.trades)-maxTradeRows:]
		}

		m.tradesTable = UpdateTradeRows(m.tradesTable, m.trades)
	case types.StrategyStopped:
		m.final = optional.Some(e)
	}
}

// startRun starts the run on its own goroutine and begins draining its messages.
func (m Model) startRun() tea.Cmd {
	events := m.events
	quitCtx := m.quitCtx

	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-quitCtx.Done():
		}
	}

	onMarketData := engine.OnMarketDataCallback(func(_ string, data types.MarketData) error {
		send(CandleMsg{Data: data})

		return nil
	})
	onEvent := engine.OnStrategyEventCallback(func(event types.StrategyEvent) {
		send(StrategyEventMsg{Event: event})
	})
	onError := engine.OnErrorCallback(func(err error) {
		send(RunErrorMsg{Err: err})
	})
	onStatus := engine.OnProviderStatusChangeCallback(func(status types.ProviderConnectionStatus) {
		send(ProviderStatusMsg{Status: status})
	})

	callbacks := engine.LiveTradingCallbacks{
		OnMarketData:           &onMarketData,
		OnStrategyEvent:        &onEvent,
		OnError:                &onError,
		OnProviderStatusChange: &onStatus,
	}

	run := m.run
	runCtx := m.runCtx
	settings := m.settings

	go func() {
		err := run(runCtx, settings, callbacks)
		send(RunFinishedMsg{Err: err})
	}()

	return m.waitForMsg()
}

func (m Model) waitForMsg() tea.Cmd {
	events := m.events
	quitCtx := m.quitCtx

	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-quitCtx.Done():
			return nil
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	if m.state == StateStrategySelect {
		s.WriteString(TitleStyle.Render("Candle Trader"))
		s.WriteString("\n\n")
		s.WriteString(m.strategyList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to start, q to quit"))

		return s.String()
	}

	s.WriteString(TitleStyle.Render(fmt.Sprintf("Candle Trader - %s %s (%s)", m.settings.Strategy, m.settings.Symbol, m.settings.Interval)))
	s.WriteString("\n")

	if m.started.IsSome() && m.started.Unwrap().SlowWindow > 0 {
		started := m.started.Unwrap()
		s.WriteString(HelpStyle.Render(fmt.Sprintf("fast=%d slow=%d quantity=%d", started.FastWindow, started.SlowWindow, started.OrderQuantity)))
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	s.WriteString(m.viewMarket())
	s.WriteString("\n")

	if len(m.trades) > 0 {
		s.WriteString(m.tradesTable.View())
		s.WriteString("\n")
	}

	if m.final.IsSome() {
		s.WriteString(renderSummary(m.final.Unwrap()))
		s.WriteString("\n")
	}

	switch {
	case m.runErr != nil:
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Run failed: %v", m.runErr)))
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("q: quit"))
	case m.state == StateFinished:
		s.WriteString(HelpStyle.Render("Run finished | q: quit"))
	case m.stopping:
		s.WriteString(HelpStyle.Render("Stopping... | q: quit"))
	default:
		s.WriteString(HelpStyle.Render("s: stop strategy | q: quit"))
	}

	return s.String()
}

func (m Model) viewMarket() string {
	var s strings.Builder

	if m.lastCandle.IsNone() {
		s.WriteString("Waiting for data...\n")

		return s.String()
	}

	candle := m.lastCandle.Unwrap()

	s.WriteString(LabelStyle.Render("Price"))
	s.WriteString(FormatPriceWithColor(candle.Close, m.prevClose))
	s.WriteString(HelpStyle.Render("  " + candle.Time.Format("2006-01-02 15:04:05")))
	s.WriteString("\n")

	if m.indicators.IsSome() {
		indicators := m.indicators.Unwrap()
		s.WriteString(LabelStyle.Render("Fast MA"))
		s.WriteString(fmt.Sprintf("%.4f\n", indicators.FastMA))
		s.WriteString(LabelStyle.Render("Slow MA"))
		s.WriteString(fmt.Sprintf("%.4f\n", indicators.SlowMA))
	} else if m.started.IsSome() && m.started.Unwrap().SlowWindow > 0 {
		s.WriteString(LabelStyle.Render("Moving avgs"))
		s.WriteString("warming up\n")
	}

	s.WriteString(LabelStyle.Render("Position"))

	if m.position.IsSome() {
		entry := m.position.Unwrap()
		s.WriteString(fmt.Sprintf("LONG %d @ %.4f ", entry.Quantity, entry.Price))
		s.WriteString(FormatProfit((candle.Close - entry.Price) * float64(entry.Quantity)))
	} else {
		s.WriteString("flat")
	}

	s.WriteString("\n")

	if m.providerStatus != "" {
		s.WriteString(LabelStyle.Render("Feed"))
		s.WriteString(string(m.providerStatus))
		s.WriteString("\n")
	}

	return s.String()
}
