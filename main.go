package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/forestapp/wildpark-api/api/handlers"

	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, scheduler and router
		log.Fatal(err)
	}

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("wildpark-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
