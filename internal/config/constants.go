package config

const (
	// AppName names the config/data directories and the env override prefix
	AppName = "snapcrawl"

	// ConfigPathEnv overrides config file discovery
	ConfigPathEnv = "SNAPCRAWL_CONFIG_PATH"

	// Crawler Defaults
	DefaultCrawlerMaxDepth           = 2
	DefaultCrawlerMaxPages           = 50
	DefaultCrawlerInterVisitDelayMs  = 1000
	DefaultCrawlerRenderTimeoutSecs  = 60
	DefaultCrawlerStripFragments     = true
	DefaultCrawlerStripTrackingParam = false

	// Quiescence Defaults
	DefaultQuiescenceIdleThresholdMs = 1000
	DefaultQuiescencePollIntervalMs  = 250
	DefaultQuiescenceMaxAttempts     = 120

	// Delivery Defaults
	DefaultDeliveryTimeoutSecs = 30
	DefaultDeliveryEnableHTTP2 = true

	// Storage Defaults
	DefaultStorageCapturesDir      = "captures"
	DefaultStorageCompressionCodec = "zstd"

	// Headless Browser Defaults
	DefaultBrowserHeadless     = true
	DefaultBrowserWindowWidth  = 1366
	DefaultBrowserWindowHeight = 768
	DefaultBrowserUserAgent    = "Mozilla/5.0 (compatible; snapcrawl/1.0)"

	// Resource Limiter Defaults
	DefaultSystemMemThreshold = 0.9

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3
)
