package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/service/cart"
	"github.com/sandevgo/storedash/internal/service/feed"
	"github.com/sandevgo/storedash/internal/service/session"
	"github.com/sandevgo/storedash/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

const helpText = `**storedash**
/catalog [text] search the catalog
/dept [name] filter by department, empty clears
/aisle [name] filter by aisle, empty clears
/more load the next page
/add <id> add a product to the cart
/remove <id> remove a product
/qty <id> <n> set a quantity
/cart show the cart
/recs refresh recommendations
/health check the prediction service`

type ProductLookup interface {
	Lookup(id string) (core.Product, bool)
}

// Bot is a single-owner chat shell over the session and the catalog feed.
type Bot struct {
	bot     *tele.Bot
	sender  *sender
	ownerID int64

	session *session.Session
	feed    *feed.Feed
	lookup  ProductLookup
	health  core.HealthChecker

	pushes chan session.Snapshot

	mu         sync.Mutex
	wasLoading bool
}

func NewBot(
	ctx context.Context,
	cfg core.TelegramConfig,
	sess *session.Session,
	catalogFeed *feed.Feed,
	lookup ProductLookup,
	health core.HealthChecker,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.GetTelegramToken(),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		sender:  newSender(b),
		ownerID: cfg.GetTelegramOwnerID(),
		session: sess,
		feed:    catalogFeed,
		lookup:  lookup,
		health:  health,
		pushes:  make(chan session.Snapshot, 4),
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only the owner may drive the session
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle("/start", bot.handleHelp)
	b.Handle("/help", bot.handleHelp)
	b.Handle("/catalog", bot.handleCatalog)
	b.Handle("/dept", bot.handleDepartment)
	b.Handle("/aisle", bot.handleAisle)
	b.Handle("/more", bot.handleMore)
	b.Handle("/add", bot.handleAdd)
	b.Handle("/remove", bot.handleRemove)
	b.Handle("/qty", bot.handleQuantity)
	b.Handle("/cart", bot.handleCart)
	b.Handle("/recs", bot.handleRecs)
	b.Handle("/health", bot.handleHealth)
	b.Handle(tele.OnText, bot.handleHelp)

	sess.Subscribe(bot.onSnapshot)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Int64("owner", b.ownerID).Msg("starting telegram bot")

	go b.pushLoop(ctx)
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

// onSnapshot queues settled predictions for the owner. It runs on the
// session's goroutine, so it never blocks.
func (b *Bot) onSnapshot(snap session.Snapshot) {
	b.mu.Lock()
	settled := b.wasLoading && !snap.PredictionsLoading
	b.wasLoading = snap.PredictionsLoading
	b.mu.Unlock()

	if !settled {
		return
	}
	select {
	case b.pushes <- snap:
	default:
	}
}

func (b *Bot) pushLoop(ctx context.Context) {
	owner := tele.ChatID(b.ownerID)
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-b.pushes:
			if err := b.sender.sendMarkdown(ctx, owner, renderPredictions(snap), true); err != nil {
				log.FromCtx(ctx).Warn().Err(err).Msg("failed to push recommendations")
			}
		}
	}
}

func (b *Bot) reply(c tele.Context, md string) error {
	ctx := c.Get(baseContextKey).(context.Context)
	return b.sender.sendMarkdown(ctx, c.Recipient(), md, false)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return b.reply(c, helpText)
}

func (b *Bot) handleCatalog(c tele.Context) error {
	f := b.feed.State().Filter
	f.Search = strings.TrimSpace(c.Message().Payload)
	return b.applyFilter(c, f)
}

func (b *Bot) handleDepartment(c tele.Context) error {
	f := b.feed.State().Filter
	f.Department = strings.TrimSpace(c.Message().Payload)
	return b.applyFilter(c, f)
}

func (b *Bot) handleAisle(c tele.Context) error {
	f := b.feed.State().Filter
	f.Aisle = strings.TrimSpace(c.Message().Payload)
	return b.applyFilter(c, f)
}

func (b *Bot) applyFilter(c tele.Context, f core.Filter) error {
	_ = c.Notify(tele.Typing)

	ev := feed.Event(feed.FilterChanged{Filter: f})
	if b.feed.State().Filter == f {
		ev = feed.Refresh{}
	}
	<-b.feed.Dispatch(ev)

	return b.reply(c, renderPage(b.feed.State(), 0))
}

func (b *Bot) handleMore(c tele.Context) error {
	before := b.feed.State()
	if before.Exhausted() {
		return b.reply(c, "No more products for this filter.")
	}

	_ = c.Notify(tele.Typing)
	<-b.feed.Dispatch(feed.SentinelVisible{})

	return b.reply(c, renderPage(b.feed.State(), len(before.Products)))
}

func (b *Bot) handleAdd(c tele.Context) error {
	id := strings.TrimSpace(c.Message().Payload)
	if id == "" {
		return b.reply(c, "Usage: `/add <id>`")
	}

	p, ok := b.resolve(id)
	if !ok {
		return b.reply(c, fmt.Sprintf("Unknown product `%s`.", id))
	}

	q := b.session.Add(p)
	return b.reply(c, fmt.Sprintf("Added %s (now %d).", p.Name, q))
}

func (b *Bot) handleRemove(c tele.Context) error {
	id := strings.TrimSpace(c.Message().Payload)
	if err := b.session.Remove(id); err != nil {
		return b.reply(c, cartError(err, id))
	}
	return b.reply(c, renderCart(b.session.Snapshot()))
}

func (b *Bot) handleQuantity(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return b.reply(c, "Usage: `/qty <id> <n>`")
	}
	q, err := strconv.Atoi(args[1])
	if err != nil {
		return b.reply(c, "Quantity must be a number.")
	}

	if err := b.session.UpdateQuantity(args[0], q); err != nil {
		return b.reply(c, cartError(err, args[0]))
	}
	return b.reply(c, renderCart(b.session.Snapshot()))
}

func (b *Bot) handleCart(c tele.Context) error {
	return b.reply(c, renderCart(b.session.Snapshot()))
}

// handleRecs predicts immediately; the result reaches the owner through the push loop.
func (b *Bot) handleRecs(c tele.Context) error {
	snap := b.session.Snapshot()
	if len(snap.Cart) == 0 {
		return b.reply(c, renderPredictions(snap))
	}

	_ = c.Notify(tele.Typing)
	b.session.PredictNow()
	return nil
}

func (b *Bot) handleHealth(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	h := b.health.Health(ctx)
	return b.reply(c, fmt.Sprintf("Prediction service: **%s**, model loaded: %t", h.Status, h.ModelLoaded))
}

// resolve prefers what the catalog feed has shown, then the reference catalog.
func (b *Bot) resolve(id string) (core.Product, bool) {
	for _, p := range b.feed.State().Products {
		if p.ID == id {
			return p, true
		}
	}
	return b.lookup.Lookup(id)
}

func cartError(err error, id string) string {
	switch {
	case errors.Is(err, cart.ErrNotInCart):
		return fmt.Sprintf("`%s` is not in your cart.", id)
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "Quantity must be at least 1. Use `/remove <id>` to drop a product."
	default:
		return "error: " + err.Error()
	}
}
