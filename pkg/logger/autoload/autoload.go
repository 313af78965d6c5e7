// Package autoload initializes the global logger from the environment as
// a side effect of being imported.
package autoload

import (
	configx "github.com/pricewatch/pricewatch/pkg/config"
	logx "github.com/pricewatch/pricewatch/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
