package util

import (
	"time"

	log "github.com/sirupsen/logrus"
)

var Loc = time.Local

// SetLocation switches Loc to the named zone, keeping the current one when the
// zone can not be loaded.
func SetLocation(name string) {
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnf("load location %s failed: %v", name, err)
		return
	}
	Loc = loc
}
