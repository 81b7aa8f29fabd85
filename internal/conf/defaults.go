// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "machinevision")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "machinevision.log")
	viper.SetDefault("main.log.maxsizemb", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxagedays", 28)

	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.sqlite.path", "machinevision.db")
	viper.SetDefault("database.mysql.username", "machinevision")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "machinevision")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.timeoutseconds", 30)

	// SafeSearch likelihood scale is 0 (unknown) to 5 (very likely).
	viper.SetDefault("safety.withholdall.adult", 5)
	viper.SetDefault("safety.withholdall.spoof", 0)
	viper.SetDefault("safety.withholdall.medical", 5)
	viper.SetDefault("safety.withholdall.violence", 5)
	viper.SetDefault("safety.withholdall.racy", 0)
	viper.SetDefault("safety.withholdpopular.adult", 4)
	viper.SetDefault("safety.withholdpopular.spoof", 0)
	viper.SetDefault("safety.withholdpopular.medical", 4)
	viper.SetDefault("safety.withholdpopular.violence", 4)
	viper.SetDefault("safety.withholdpopular.racy", 5)
	viper.SetDefault("safety.withholdlist", []string{})

	viper.SetDefault("limits.maxsuggestionsperingest", 500)
	viper.SetDefault("limits.maxreviewbatchsize", 100)

	viper.SetDefault("provider.googlevision.enabled", false)
	viper.SetDefault("provider.googlevision.credentialspath", "")
	viper.SetDefault("provider.googlevision.timeoutseconds", 30)
	viper.SetDefault("provider.googlevision.requestspersec", 5.0)
	viper.SetDefault("provider.googlevision.maxresults", 20)

	viper.SetDefault("provider.wikidata.enabled", false)
	viper.SetDefault("provider.wikidata.endpoint", "https://www.wikidata.org/w/api.php")
	viper.SetDefault("provider.wikidata.timeoutseconds", 15)

	viper.SetDefault("mapping.filepath", "freebase-wikidata-mapping.tsv")

	viper.SetDefault("jobqueue.maxjobs", 1000)
	viper.SetDefault("jobqueue.maxretries", 3)
	viper.SetDefault("jobqueue.initialdelayseconds", 30)
	viper.SetDefault("jobqueue.maxdelayseconds", 600)
}
