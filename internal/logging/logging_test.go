package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := SetupWriter(&buf, true, "debug")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())

	log.WithField("target", 102).Info("[send] bundle submitted")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "[send] bundle submitted", entry["msg"])
	require.Equal(t, float64(102), entry["target"])
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}`, entry["time"])
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	log, err := SetupWriter(&buf, false, "")
	require.NoError(t, err)
	log.Warn("hello")
	require.True(t, strings.Contains(buf.String(), "level=warning"))
}

func TestSetupBadLevel(t *testing.T) {
	_, err := Setup(false, "loud")
	require.Error(t, err)
}
