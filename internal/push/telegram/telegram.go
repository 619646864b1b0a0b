package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

// telegram caps messages at 4096 chars; stay under it with room for markup
const textLimit = 3900

type Config struct {
	Token  string
	ChatID int64
}

// Adapter delivers out-of-app alerts to a Telegram chat. It is send-only:
// no poller, no inbound updates.
//
// "Permission" maps to the chat being reachable with the configured token;
// it is probed once by RequestPermission and cached, since a revoked bot
// token surfaces as a Show error anyway.
type Adapter struct {
	cfg Config
	bot *tele.Bot
	log logx.Logger

	permitted atomic.Bool
	probed    atomic.Bool
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, bot: b, log: log.With(logx.String("comp", "push.telegram"))}, nil
}

func (a *Adapter) HasPermission(ctx context.Context) bool {
	if !a.probed.Load() {
		return false
	}
	return a.permitted.Load()
}

func (a *Adapter) RequestPermission(ctx context.Context) notify.Permission {
	_, err := a.bot.ChatByID(a.cfg.ChatID)
	a.probed.Store(true)
	if err != nil {
		a.permitted.Store(false)
		a.log.Warn("target chat unreachable", logx.Int64("chat_id", a.cfg.ChatID), logx.Err(err))
		return notify.PermissionDenied
	}
	a.permitted.Store(true)
	return notify.PermissionGranted
}

func (a *Adapter) Show(ctx context.Context, title, body string, opt notify.PushOptions) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	text := formatAlert(title, body, opt)
	_, err := a.bot.Send(tele.ChatID(a.cfg.ChatID), text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	return err
}

func formatAlert(title, body string, opt notify.PushOptions) string {
	var b strings.Builder
	b.WriteString(prefixForPriority(opt.Priority))
	b.WriteString("<b>")
	b.WriteString(escapeHTML(title))
	b.WriteString("</b>")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(escapeHTML(body))
	}
	if opt.DocumentID != "" {
		b.WriteString(fmt.Sprintf("\ndoc: %s", escapeHTML(opt.DocumentID)))
	}
	if opt.ActionURL != "" {
		b.WriteString("\n")
		b.WriteString(escapeHTML(opt.ActionURL))
	}
	s := b.String()
	if len(s) > textLimit {
		s = s[:textLimit]
	}
	return s
}

func prefixForPriority(p notify.Priority) string {
	switch p {
	case notify.PriorityUrgent:
		return "\U0001F6A8 "
	case notify.PriorityHigh:
		return "⚠️ "
	default:
		return ""
	}
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
