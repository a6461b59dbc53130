package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockLens/internal/insights"
	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/notifier"

	"github.com/robfig/cron/v3"
)

// InsightsService computes insights for a raw symbol.
type InsightsService interface {
	Get(ctx context.Context, rawSymbol string) (*insights.Result, error)
}

// Watchlist is the subset of the store the scheduler reads and edits.
type Watchlist interface {
	AddSymbol(ctx context.Context, userID, symbol string) (*model.WatchlistItem, error)
	RemoveSymbol(ctx context.Context, userID, symbol string) error
	ListSymbols(ctx context.Context, userID string) ([]model.WatchlistItem, error)
	AllSymbols(ctx context.Context) ([]string, error)
}

// Sender delivers a message to the operator chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Insights  InsightsService
	Watchlist Watchlist
	Notifier  Sender // nil disables digests
	Calendar  *TradingCalendar
	ChatUser  string // watchlist owner for chat commands
	Ctx       context.Context
	Now       func() time.Time

	log *logger.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, ins InsightsService, wl Watchlist, sender Sender, cal *TradingCalendar, chatUser string) *Scheduler {
	log := logger.GetLogger()
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		Insights:  ins,
		Watchlist: wl,
		Notifier:  sender,
		Calendar:  cal,
		ChatUser:  chatUser,
		Ctx:       ctx,
		Now:       time.Now,
		log:       log.WithComponent("scheduler"),
	}
}

// RegisterAll registers the cache refresh and digest tasks.
func (s *Scheduler) RegisterAll(refreshCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if s.Notifier != nil {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if !s.tradingDay() {
		s.log.Info("market closed today, skipping refresh")
		return
	}
	warmed, failed := s.refresh(s.Ctx)
	s.log.WithFields(logger.Fields{"warmed": warmed, "failed": failed}).Info("refresh finished")
}

// refresh warms the cache for every watchlisted symbol. Each miss waits its
// turn in the provider queue.
func (s *Scheduler) refresh(ctx context.Context) (warmed, failed int) {
	symbols, err := s.Watchlist.AllSymbols(ctx)
	if err != nil {
		s.log.WithError(err).Error("list watchlist symbols")
		return 0, 0
	}
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Insights.Get(ctx, sym); err != nil {
			failed++
			s.log.WithFields(logger.Fields{"symbol": sym}).WithError(err).Warn("refresh failed")
			continue
		}
		warmed++
	}
	return warmed, failed
}

func (s *Scheduler) digestTask() {
	if !s.tradingDay() {
		s.log.Info("market closed today, skipping digest")
		return
	}
	symbols, err := s.Watchlist.AllSymbols(s.Ctx)
	if err != nil {
		s.log.WithError(err).Error("list watchlist symbols")
		return
	}
	s.trySend(s.digest(s.Ctx, symbols))
}

func (s *Scheduler) digest(ctx context.Context, symbols []string) string {
	lines := make([]notifier.DigestLine, 0, len(symbols))
	for _, sym := range symbols {
		line := notifier.DigestLine{Symbol: sym}
		if res, err := s.Insights.Get(ctx, sym); err != nil {
			line.Err = err
		} else {
			line.Insights = &res.Insights
		}
		lines = append(lines, line)
	}
	return notifier.FormatDigest(s.Now(), lines)
}

func (s *Scheduler) tradingDay() bool {
	return s.Calendar == nil || s.Calendar.IsTradingDay(s.Now())
}

const helpText = "Commands:\n" +
	"/insights SYMBOL - price, trend and range\n" +
	"/watch SYMBOL - add to watchlist\n" +
	"/unwatch SYMBOL - remove from watchlist\n" +
	"/watchlist - list watched symbols\n" +
	"/digest - summary of the watchlist"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	cmd, arg := strings.ToLower(fields[0]), ""
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/insights":
		res, err := s.Insights.Get(ctx, arg)
		if err != nil {
			return model.UserMessage(err)
		}
		return notifier.FormatInsights(res.Insights, res.FromCache)
	case "/watch":
		symbol, err := model.NormalizeSymbol(arg)
		if err != nil {
			return model.UserMessage(err)
		}
		if _, err := s.Watchlist.AddSymbol(ctx, s.ChatUser, symbol); err != nil {
			return model.UserMessage(err)
		}
		return fmt.Sprintf("Added %s to your watchlist.", symbol)
	case "/unwatch":
		symbol, err := model.NormalizeSymbol(arg)
		if err != nil {
			return model.UserMessage(err)
		}
		if err := s.Watchlist.RemoveSymbol(ctx, s.ChatUser, symbol); err != nil {
			return model.UserMessage(err)
		}
		return fmt.Sprintf("Removed %s from your watchlist.", symbol)
	case "/watchlist":
		items, err := s.Watchlist.ListSymbols(ctx, s.ChatUser)
		if err != nil {
			return model.UserMessage(err)
		}
		if len(items) == 0 {
			return "Your watchlist is empty. Add a symbol with /watch SYMBOL."
		}
		return "Watchlist: " + strings.Join(symbolsOf(items), ", ")
	case "/digest":
		items, err := s.Watchlist.ListSymbols(ctx, s.ChatUser)
		if err != nil {
			return model.UserMessage(err)
		}
		return s.digest(ctx, symbolsOf(items))
	default:
		return helpText
	}
}

func symbolsOf(items []model.WatchlistItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Symbol
	}
	return out
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
