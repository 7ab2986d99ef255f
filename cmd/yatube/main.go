// @title Yatube API
// @version 1.0
// @description Yatube 博客平台的 JSON 接口
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"os"

	"github.com/d60-Lab/yatube/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
