package log_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/log"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		level logrus.Level
		json  bool
	}{
		{name: "default", level: logrus.InfoLevel},
		{name: "debug", env: map[string]string{log.DebugEnv: "1"}, level: logrus.DebugLevel},
		{name: "invalid debug", env: map[string]string{log.DebugEnv: "yes"}, level: logrus.InfoLevel},
		{name: "level", env: map[string]string{log.DebugEnv: "true", log.LevelEnv: "warn"}, level: logrus.WarnLevel},
		{name: "invalid level", env: map[string]string{log.LevelEnv: "loud"}, level: logrus.InfoLevel},
		{name: "json", env: map[string]string{log.JSONEnv: "1"}, level: logrus.InfoLevel, json: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := log.New(func(key string) string { return test.env[key] })
			assert.Equal(t, test.level, l.GetLevel())
			_, isJSON := l.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, test.json, isJSON)
		})
	}
}

func TestDiscard(t *testing.T) {
	l := log.Discard()
	assert.False(t, l.IsLevelEnabled(logrus.ErrorLevel))
}
