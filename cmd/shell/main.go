package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/config"
	"github.com/l1jgo/shell/internal/core/ecs"
	"github.com/l1jgo/shell/internal/core/event"
	"github.com/l1jgo/shell/internal/data"
	"github.com/l1jgo/shell/internal/scripting"
	"github.com/l1jgo/shell/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, fps int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              ECS shell  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mdomain:\033[0m %s \033[90m(%d fps)\033[0m\n\n", name, fps)
}

func printSection(title string) {
	lineLen := 46 - len([]rune(title)) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len([]rune(label)) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Shell context ─────────────────────────────────────────────────

// shellContext is the domain owner: read-only settings plus services.
type shellContext struct {
	*ecs.Services
	cfg *config.Config
}

func (c shellContext) Lookup(key string) (any, bool) {
	switch key {
	case "name":
		return c.cfg.Shell.Name, true
	case "frame_rate":
		return c.cfg.Shell.FrameRate, true
	case "start_time":
		return c.cfg.Shell.StartTime, true
	}
	return nil, false
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Environment and config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfgPath := "config/shell.toml"
	if p := os.Getenv("SHELL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Profiling
	switch cfg.Profile.Mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook, profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	printBanner(cfg.Shell.Name, cfg.Shell.FrameRate)

	// 4. Domain and component types
	printSection("domain")
	canvas := system.NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height)
	owner := shellContext{Services: ecs.NewServices(), cfg: cfg}
	owner.Set(system.CanvasService, canvas)

	d := ecs.NewDomain(ecs.WithLogger(log), ecs.WithOwner(owner))
	defer d.Close()
	if err := component.Register(d); err != nil {
		return fmt.Errorf("register components: %w", err)
	}
	printStat("component types", d.ComponentTypeCount())

	expiry := system.NewExpirySystem(log)
	render := system.NewRenderSystem(log)
	for _, s := range []ecs.System{system.NewMotionSystem(), expiry, render} {
		if err := d.AddSystem(s, ""); err != nil {
			return fmt.Errorf("add system: %w", err)
		}
	}
	if err := d.AddEventHandler(event.Named(system.EventExpired),
		ecs.HandlerOf(func(d *ecs.Domain, e ecs.Entity, _ event.ID, life *component.Lifetime) {
			log.Info("entity expired", zap.String("name", d.EntityName(e)), zap.Duration("lived", life.Elapsed))
		})); err != nil {
		return fmt.Errorf("expiry handler: %w", err)
	}
	printOK("systems registered")
	fmt.Println()

	// 5. Spawn list
	printSection("data")
	spawns, err := data.LoadSpawnList(cfg.Data.SpawnList)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("spawn list missing, starting empty", zap.String("path", cfg.Data.SpawnList))
	} else if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	} else {
		if _, err := spawns.Spawn(d); err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
		printStat("spawn entries", spawns.Count())
	}
	printStat("entities", d.EntityCount())
	fmt.Println()

	// 6. Scripts
	if cfg.Scripting.Enabled {
		printSection("scripts")
		engine, err := scripting.NewEngine(d, cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		if err := d.AddSystem(scripting.NewScriptSystem(engine), ""); err != nil {
			return fmt.Errorf("add script system: %w", err)
		}
		printStat("lua handlers", engine.Handlers())
		fmt.Println()
	}

	// 7. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	interval := cfg.Shell.FrameInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("frame loop started (frame: %s)", interval))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			d.Advance(interval)
			frame := d.Frame()
			if every := uint64(cfg.Shell.RenderEvery); every > 0 && frame%every == 0 {
				canvas.Clear()
				d.Render(nil) // systems draw onto the canvas service
				printSection(fmt.Sprintf("frame %d · %d entities", frame, d.EntityCount()))
				fmt.Print(canvas.String())
			}
			if cfg.Shell.Frames > 0 && frame >= cfg.Shell.Frames {
				log.Info("frame limit reached",
					zap.Uint64("frames", frame),
					zap.Int("expired", expiry.Expired()))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			log.Info("shell stopped", zap.Uint64("frames", d.Frame()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Development makes DPanic panic, which surfaces misuse of the domain.
	zapCfg.Development = cfg.Development

	return zapCfg.Build()
}
