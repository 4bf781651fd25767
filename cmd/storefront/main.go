// Command storefront is a terminal frontend for the shop: it drives the
// session/cart context the same way the web views do, with every
// accepted command counting as user activity.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront-client/internal/config"
	"storefront-client/internal/session"
	"storefront-client/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := buildLogger(cfg.LogEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	nav := &consoleNavigator{path: "/"}
	sess := session.New(session.Config{
		BaseURL:           cfg.APIBaseURL,
		Tokens:            store.NewMemory(),
		Notifier:          consoleNotifier{},
		Navigator:         nav,
		Logger:            logger,
		InactivityTimeout: cfg.InactivityTimeout,
	})

	app := &app{sess: sess, nav: nav, out: os.Stdout}

	fmt.Println("storefront — type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", nav.Path())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sess.Touch()
		if !app.dispatch(line) {
			break
		}
	}
}

// consoleNotifier renders the context's transient messages as the web
// app renders toasts.
type consoleNotifier struct{}

func (consoleNotifier) Success(msg string) { fmt.Println("  ✓", msg) }
func (consoleNotifier) Info(msg string)    { fmt.Println("  i", msg) }
func (consoleNotifier) Warn(msg string)    { fmt.Println("  !", msg) }
func (consoleNotifier) Error(msg string)   { fmt.Println("  ✗", msg) }

// consoleNavigator tracks the "current view" so a forced logout can
// land on the login view exactly once.
type consoleNavigator struct {
	path string
}

func (n *consoleNavigator) Path() string { return n.path }

func (n *consoleNavigator) GoTo(path string) {
	n.path = path
	fmt.Println("  →", path)
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	// Keep interactive output readable: errors only.
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	return cfg.Build()
}
