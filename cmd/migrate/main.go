// Command migrate creates the DynamoDB tables the server expects. Existing
// tables are left untouched. Pass --list to print the tables visible to the
// configured credentials instead.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/streetbite/vendorhub/internal/config"
	"github.com/streetbite/vendorhub/internal/repository/dynamo"
	"github.com/streetbite/vendorhub/internal/storage"
)

func main() {
	configPath := "config/config.yaml"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			configPath = a
		}
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}
	client := dynamo.NewClient(awsCfg, cfg.Storage.Endpoint)
	log.Printf("Connected to DynamoDB (region %s)", cfg.Storage.AWSRegion)

	if listOnly {
		names, err := dynamo.ListTables(ctx, client)
		if err != nil {
			log.Fatal(err)
		}
		for _, n := range names {
			fmt.Println(" ", n)
		}
		fmt.Printf("Total: %d tables\n", len(names))
		return
	}

	var okCount, errCount int
	for _, spec := range dynamo.Tables(cfg.Storage) {
		fmt.Printf("  %s ... ", spec.Name)
		res, err := dynamo.EnsureTable(ctx, client, spec)
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			errCount++
			continue
		}
		fmt.Println(res)
		okCount++
	}
	log.Printf("Done: %d OK, %d errors", okCount, errCount)
	if errCount > 0 {
		os.Exit(1)
	}
	log.Println("Migrations complete")
}
