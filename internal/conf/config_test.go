package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	settings := validTestSettings()
	settings.Main.Name = "machinevision-test"
	settings.Safety.WithholdList = []string{"Q8441"}

	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	require.NoError(t, SaveSettings(settings, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "machinevision-test", loaded.Main.Name)
	assert.Equal(t, []string{"Q8441"}, loaded.Safety.WithholdList)
	assert.Equal(t, settings.Limits, loaded.Limits)
	assert.Equal(t, settings.Safety.WithholdAll, loaded.Safety.WithholdAll)
}

func TestSettingReturnsActiveInstance(t *testing.T) {
	settings := validTestSettings()
	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	assert.Same(t, settings, Setting())
}
