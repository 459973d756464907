// Package autoload initializes the global logger from the environment as a
// side effect of being imported.
package autoload

import (
	logx "github.com/kittipos/callroom/pkg/logger"

	"github.com/kelseyhightower/envconfig"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		return
	}
	logx.Init(conf)
}
