package app

import (
	"errors"
	"fmt"
	tele "gopkg.in/telebot.v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"log/slog"
	"pixellize/internal/app/config"
	"pixellize/internal/app/imagefile"
	"pixellize/internal/app/models"
	"pixellize/internal/app/repository"
	"pixellize/pkg/logger"
	"strconv"
	"strings"
	"time"
)

// Grids are the pixel grid sizes offered on the inline keyboard.
var Grids = []int{32, 48, 64, 72, 96, 128}

const gridPrefix = "grid_"

type App struct {
	log       *logger.Logger
	cfg       *config.Config
	db        *gorm.DB
	statsRepo *repository.StatsRepository
	bot       *tele.Bot
	pending   *pendingFiles
	limiter   *userLimiter
}

func New() error {
	a := &App{
		log: logger.New(),
	}

	var err error
	a.cfg, err = config.NewConfig()
	if err != nil {
		a.log.Error("Error loading config from env", err)
		return err
	}
	a.log.SetLogLevel(a.cfg.LoggerLevel)
	a.log.SetOutputFile(a.cfg.LogFile)
	defer a.log.Close()

	if a.cfg.TelegramAPI == "" {
		return errors.New("TELEGRAM_API is not set")
	}
	if _, err = a.cfg.DefaultParams(); err != nil {
		a.log.Error("Invalid pixellize settings", err)
		return err
	}

	a.db, err = gorm.Open(sqlite.Open(a.cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		return err
	}
	err = a.db.AutoMigrate(models.Chat{}, models.Event{})
	if err != nil {
		return err
	}

	a.statsRepo = repository.NewStats(a.log, a.db)
	go a.statsRepo.EventLoop()
	defer a.statsRepo.Stop()

	a.pending = newPendingFiles()
	a.limiter = newUserLimiter(a.cfg.RateLimit, a.cfg.RateBurst)

	return RunBot(a)
}

func RunBot(a *App) error {
	pref := tele.Settings{
		Token:  a.cfg.TelegramAPI,
		Poller: &tele.LongPoller{Timeout: 1 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}
	a.bot = b

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(fmt.Sprintf("Hi, %s!\n\nI am Pixellize. Send me a picture and I will turn it into pixel art.", c.Sender().FirstName))
	})

	b.Handle(tele.OnPhoto, func(c tele.Context) error {
		a.pending.Put(c.Sender().ID, pendingFile{ID: c.Message().Photo.FileID, Source: "photo"})
		return c.Reply("Pick the size of the pixel grid:", gridMenu())
	})

	b.Handle(tele.OnDocument, func(c tele.Context) error {
		doc := c.Message().Document
		if !strings.HasPrefix(doc.MIME, "image/") {
			return c.Reply("Only images can be pixellized.")
		}
		a.pending.Put(c.Sender().ID, pendingFile{ID: doc.FileID, Source: "document"})
		return c.Reply("Pick the size of the pixel grid:", gridMenu())
	})

	b.Handle(tele.OnCallback, a.onCallback)

	b.Handle("/stats", func(c tele.Context) error {
		if a.cfg.AdminID == 0 || c.Sender().ID != a.cfg.AdminID {
			return nil
		}
		return a.sendStats(c)
	})

	a.log.Info("bot started", slog.String("bot", b.Me.Username))
	b.Start()
	return nil
}

func (a *App) onCallback(c tele.Context) error {
	if err := c.Respond(); err != nil {
		a.log.Debug("failed to answer callback", slog.Int64("user", c.Sender().ID), slog.String("error", err.Error()))
	}
	return a.handleGrid(c)
}

func (a *App) handleGrid(c tele.Context) error {
	userID := c.Sender().ID
	pixels, err := parseGrid(c.Callback().Data)
	if err != nil {
		a.log.Warn("bad callback data", slog.String("data", c.Callback().Data), slog.String("error", err.Error()))
		return c.Send("Something went wrong, please try again later")
	}

	file, ok := a.pending.Take(userID)
	if !ok {
		return nil
	}

	if !a.limiter.Allow(userID) {
		a.pending.Put(userID, file)
		return c.Send("Too many pictures at once, wait a few seconds and pick again.")
	}

	params, err := a.cfg.Params(pixels)
	if err != nil {
		a.log.Error("Failed to build params", err, slog.Int("pixels", pixels))
		return c.Send("Something went wrong, please try again later")
	}

	tf, err := a.bot.FileByID(file.ID)
	if err != nil {
		a.log.Error("Failed to resolve file", err, slog.Int64("user", userID))
		return c.Send("Something went wrong, please try again later")
	}
	rc, err := a.bot.File(&tf)
	if err != nil {
		a.log.Error("Failed to download file", err, slog.Int64("user", userID))
		return c.Send("Could not download the picture: " + err.Error())
	}
	defer rc.Close()

	start := time.Now()
	buf, out, err := imagefile.Render(rc, a.cfg.UniformEdge, params)
	if err != nil {
		a.log.Error("Failed to pixellize", err, slog.Int64("user", userID), slog.Int("pixels", pixels))
		return c.Send("Could not pixellize the picture: " + err.Error())
	}
	size := out.Bounds().Size()
	a.log.Debug("pixellized",
		slog.Int64("user", userID),
		slog.Int("pixels", pixels),
		slog.Int("width", size.X),
		slog.Int("height", size.Y),
		slog.Duration("took", time.Since(start)),
	)

	if err := a.statsRepo.RecordEvent(models.Event{
		ChatID: c.Chat().ID,
		Pixels: pixels,
		Colors: len(out.Palette),
		Width:  size.X,
		Height: size.Y,
		Source: file.Source,
	}); err != nil {
		a.log.Error("Failed to record event", err)
	}

	return c.Send(&tele.Photo{
		File:    tele.FromReader(buf),
		Caption: fmt.Sprintf("#pixellized %d px grid, %d colors", pixels, len(out.Palette)),
	})
}

func (a *App) sendStats(c tele.Context) error {
	a.statsRepo.Flush()

	counts := make([]int, 0, 4)
	for _, period := range []string{"hour", "day", "week", "month"} {
		n, err := a.statsRepo.GetStats(period)
		if err != nil {
			return err
		}
		counts = append(counts, n)
	}

	chats, err := a.statsRepo.GetActiveChatsCount()
	if err != nil {
		return err
	}
	grid, err := a.statsRepo.GetTopGrid()
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("📊 Pictures pixellized:\n"+
		"👉 last hour: %d\n👉 last day: %d\n👉 last week: %d\n👉 last month: %d\n\n"+
		"🚀 Chats (all time): %d\n🧱 Favourite grid: %d px", counts[0], counts[1], counts[2], counts[3], chats, grid)
	return c.Send(msg, &tele.SendOptions{ReplyTo: c.Message()})
}

func gridMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	var rows []tele.Row
	for i, pixels := range Grids {
		if i%3 == 0 {
			rows = append(rows, tele.Row{})
		}
		btn := menu.Data(strconv.Itoa(pixels), gridPrefix+strconv.Itoa(pixels))
		rows[len(rows)-1] = append(rows[len(rows)-1], btn)
	}

	menu.Inline(rows...)
	return menu
}

// parseGrid reads the grid size out of callback data. Telebot prefixes
// unique button data with \f, which TrimSpace removes.
func parseGrid(data string) (int, error) {
	pixels, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(data), gridPrefix))
	if err != nil {
		return 0, fmt.Errorf("parse grid %q: %w", data, err)
	}
	for _, g := range Grids {
		if g == pixels {
			return pixels, nil
		}
	}
	return 0, fmt.Errorf("grid %d is not offered", pixels)
}
