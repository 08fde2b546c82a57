package conf

import "github.com/spf13/viper"

// setDefaultConfig registers viper defaults for every setting so a partial
// config file still yields a fully populated Settings struct.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("main.name", "CamDex-Go")

	// Output
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "camdex.db")
	viper.SetDefault("output.imagedir", "images")
	viper.SetDefault("output.thumbdir", "images/thumbs")
	viper.SetDefault("output.attributiondir", "attributions")
	viper.SetDefault("output.reportpath", "automation-report.json")

	// Discovery
	viper.SetDefault("discovery.debug", false)
	viper.SetDefault("discovery.dailyquota", 200)
	viper.SetDefault("discovery.candidatedelayms", 1500)
	viper.SetDefault("discovery.maxretries", 3)

	// Image provider chain
	viper.SetDefault("imageprovider.debug", false)
	viper.SetDefault("imageprovider.providers", []string{"manufacturer", "archive", "retailer"})
	viper.SetDefault("imageprovider.timeoutseconds", 12)
	viper.SetDefault("imageprovider.mindimension", 100)
	viper.SetDefault("imageprovider.maxdownloadbytes", int64(20*1024*1024))
	viper.SetDefault("imageprovider.maximagewidth", 1200)
	viper.SetDefault("imageprovider.thumbwidth", 400)
	viper.SetDefault("imageprovider.negativecachettl", 60)
	viper.SetDefault("imageprovider.archiveapiendpoint", "https://commons.wikimedia.org/w/api.php")
	viper.SetDefault("imageprovider.useragentcontact", "https://github.com/camdex/camdex-go")

	// Scheduler
	viper.SetDefault("scheduler.intervalhours", 6)
	viper.SetDefault("scheduler.backuptime", "03:30")
	viper.SetDefault("scheduler.runatstart", true)

	// Backup
	viper.SetDefault("backup.enabled", true)
	viper.SetDefault("backup.path", "backups")
	viper.SetDefault("backup.retain", 7)
}
