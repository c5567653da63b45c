package mosquitto

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// Options is the flat key/value mapping the broker hands a plugin at
// initialization, built from the auth_opt_* lines of its configuration file.
type Options map[string]string

// Get returns the value for key, or def when the key is absent.
func (o Options) Get(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

// GetInt returns the value for key parsed as an integer. Absent keys and
// unparseable values fall back to def; the fallback on a parse failure is
// logged rather than surfaced, since broker options have no error channel.
func (o Options) GetInt(key string, def int) int {
	v, ok := o[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "mosquitto.Options",
			"key":       key,
			"value":     v,
			"default":   def,
		}).Debug("Option is not an integer, using default")
		return def
	}
	return n
}

// GetBool returns the value for key parsed as a boolean, with the same
// fallback behavior as GetInt.
func (o Options) GetBool(key string, def bool) bool {
	v, ok := o[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "mosquitto.Options",
			"key":       key,
			"value":     v,
			"default":   def,
		}).Debug("Option is not a boolean, using default")
		return def
	}
	return b
}
