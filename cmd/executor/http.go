package main

import (
	"fmt"

	echo "github.com/labstack/echo/v4"
	"github.com/srand/mexec/pkg/executor"
	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/utils"
)

func serveHttp(driver *executor.ExecutorDriver, port int) {
	r := echo.New()
	r.HideBanner = true
	r.Use(utils.HttpLogger)

	executor.NewHttpHandler(driver, r)

	if err := r.Start(fmt.Sprintf(":%d", port)); err != nil {
		log.Error(err)
	}
}
