package sites

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/pkg/utils"
)

// SaveFailureScreenshot captures the session's viewport to the debug
// screenshot directory when debug screenshots are enabled. Capture problems
// are logged and swallowed so a diagnostics failure never masks the scrape
// failure being recorded. Returns the written path, or an empty string.
func SaveFailureScreenshot(ctx context.Context, cfg *config.Config, sess session.Session, logger types.Logger) string {
	if cfg == nil || !cfg.Scraper.DebugScreenshots {
		return ""
	}

	shot, err := sess.Screenshot(ctx)
	if err != nil {
		logger.Debug("Failed to capture failure screenshot", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
		return ""
	}

	dir := cfg.Scraper.ScreenshotDir
	if dir == "" {
		dir = "./debug/screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Debug("Failed to create screenshot directory", map[string]interface{}{
			"dir":   dir,
			"error": err.Error(),
		})
		return ""
	}

	name := fmt.Sprintf("%s-%s.jpg", sess.SiteKey(), time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		logger.Debug("Failed to write failure screenshot", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return ""
	}

	logger.Info("Saved failure screenshot", map[string]interface{}{
		"site": sess.SiteKey(),
		"path": path,
	})

	uploadFailureScreenshot(cfg, sess, shot, logger)
	return path
}

// uploadFailureScreenshot ships the capture to object storage when
// configured. The local copy above is the primary record; upload problems
// are logged and swallowed.
func uploadFailureScreenshot(cfg *config.Config, sess session.Session, shot []byte, logger types.Logger) {
	if !utils.SpacesConfigured(cfg) {
		return
	}

	client, err := utils.NewSpacesClient(cfg)
	if err != nil {
		logger.Debug("Failed to create spaces client for screenshot upload", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if _, err := client.UploadFailureScreenshot(sess.SiteKey(), sess.ID(), shot); err != nil {
		logger.Debug("Failed to upload failure screenshot", map[string]interface{}{
			"session_id": sess.ID(),
			"site":       sess.SiteKey(),
			"error":      err.Error(),
		})
	}
}
