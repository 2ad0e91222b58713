// Package autoload initializes the global logger from LOG_* environment
// variables as a side effect of being imported:
//
//	import _ "github.com/nvejas/citeline/pkg/logger/autoload"
package autoload

import (
	configx "github.com/nvejas/citeline/pkg/config"
	logx "github.com/nvejas/citeline/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
