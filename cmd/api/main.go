package main

import (
	"log"
	"os"
	"sectorrotation/cmd"

	"go.uber.org/zap"
)

func main() {
	zap.S().Infof("commit %s", os.Getenv("commit_hash"))
	apiHandler, err := cmd.InitializeDependencies(os.Getenv("SECTOR_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	defer cmd.CloseDependencies(apiHandler)
	err = apiHandler.StartApi(3009)
	if err != nil {
		log.Fatal(err)
	}
}
