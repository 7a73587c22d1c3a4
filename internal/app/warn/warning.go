package warn

import log "github.com/sirupsen/logrus"

// Must logs err under desc and passes it through.
func Must(desc string, err error) error {
	if err != nil {
		log.Errorf("%s failed: %+v", desc, err)
	}
	return err
}
