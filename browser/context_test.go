package browser_test

import (
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/fixture"
)

func TestArtifactDir(t *testing.T) {
	tests := []struct {
		testName string
		project  string
		retry    int
		want     string
	}{
		{"TestLogin/valid credentials", "chromium", 0, "TestLogin-valid-credentials-chromium"},
		{"TestSearch", "mobile-safari", 1, "TestSearch-mobile-safari-retry1"},
		{"TestX/#00", "", 0, "TestX-00"},
	}

	for _, tt := range tests {
		got := browser.ArtifactDir("test-results", tt.testName, tt.project, tt.retry)
		assert.Equal(t, filepath.Join("test-results", tt.want), got)
	}
}

func TestNewContextOptions_Desktop(t *testing.T) {
	cfg := config.Default()
	cfg.Video = config.CaptureOff

	o := browser.NewContextOptions(cfg, nil, browser.ContextOptions{}, "out")

	require.NotNil(t, o.BaseURL)
	assert.Equal(t, cfg.BaseURL, *o.BaseURL)
	require.NotNil(t, o.IgnoreHttpsErrors)
	assert.True(t, *o.IgnoreHttpsErrors)
	assert.Nil(t, o.StorageStatePath)
	assert.Nil(t, o.RecordVideo)
	assert.Nil(t, o.IsMobile)
	assert.Nil(t, o.UserAgent)
}

func TestNewContextOptions_DeviceStorageAndVideo(t *testing.T) {
	cfg := config.Default()
	cfg.Video = config.CaptureOnFirstRetry
	cfg.Retry = 1

	device := &playwright.DeviceDescriptor{
		UserAgent:         "Mozilla/5.0 (Linux; Android 14; Pixel 7)",
		Viewport:          &playwright.Size{Width: 412, Height: 839},
		DeviceScaleFactor: 2.625,
		IsMobile:          true,
		HasTouch:          true,
	}

	o := browser.NewContextOptions(cfg, device, browser.ContextOptions{StorageStatePath: ".auth/session.json"}, "out")

	require.NotNil(t, o.UserAgent)
	assert.Contains(t, *o.UserAgent, "Pixel 7")
	assert.Equal(t, device.Viewport, o.Viewport)
	require.NotNil(t, o.IsMobile)
	assert.True(t, *o.IsMobile)
	require.NotNil(t, o.StorageStatePath)
	assert.Equal(t, ".auth/session.json", *o.StorageStatePath)
	require.NotNil(t, o.RecordVideo)
	assert.Equal(t, filepath.Join("out", "videos"), o.RecordVideo.Dir)
}

func TestFixtures_Merge(t *testing.T) {
	rt := browser.NewRuntime(config.Default(), nil)

	registry, err := fixture.Merge(browser.Fixtures(rt))
	require.NoError(t, err)

	plan, err := registry.Plan(browser.PageKey.Name())
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "context", "page"}, plan)

	deps, err := registry.Dependencies(browser.ContextKey.Name())
	require.NoError(t, err)
	assert.Equal(t, []string{"browser"}, deps)
}

func TestRuntime_CloseWithoutStart(t *testing.T) {
	rt := browser.NewRuntime(config.Default(), nil)
	assert.NoError(t, rt.Close())
	assert.NoError(t, rt.Close())
	assert.Equal(t, config.Project{}, rt.Project())
	assert.Nil(t, rt.Device())
}
