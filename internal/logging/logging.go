// Package logging sets up one structured logger per subsystem, backed
// by github.com/sirupsen/logrus (teacher dep, pkg/v2/service.go). Every
// subsystem package calls For("name") once at init and logs through the
// returned entry, so per-hart and per-task fields are attached
// consistently instead of being threaded through call sites by hand.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base  = logrus.New()
	once  sync.Once
	mu    sync.Mutex
	cache = map[string]*logrus.Entry{}
)

func initBase() {
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	base.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts the global log level (used by cmd/kernel's -v flag).
func SetLevel(level logrus.Level) {
	once.Do(initBase)
	base.SetLevel(level)
}

// For returns the subsystem logger for component, creating it on first
// use. component is attached as the "subsys" field on every line.
func For(component string) *logrus.Entry {
	once.Do(initBase)
	mu.Lock()
	defer mu.Unlock()
	if e, ok := cache[component]; ok {
		return e
	}
	e := base.WithField("subsys", component)
	cache[component] = e
	return e
}
