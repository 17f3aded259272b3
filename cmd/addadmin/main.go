package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nexura/config"
	"nexura/db"
	"nexura/pkg/log"
	"nexura/services"
	"nexura/store"
)

func main() {
	// Parse command line flags
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", "", "Admin password (required)")
	name := flag.String("name", "", "Admin name (required)")
	role := flag.String("role", "admin", "Admin role")
	configPath := flag.String("config", "config/config.prod.yml", "Path to config file")
	flag.Parse()

	// Validate required fields
	if *email == "" || *password == "" || *name == "" {
		fmt.Println("Error: email, password, and name are required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URI == "memory" {
		log.Fatal("addadmin needs a MongoDB uri; the in-memory store is not shared with the server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, database, err := db.ConnectMongoDB(ctx, cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	svc := services.New(services.Deps{Store: store.NewMongo(database)}, services.Options{})
	admin, err := svc.CreateAdmin(ctx, *email, *name, *password, *role)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Admin created successfully!\n")
	fmt.Printf("   ID: %s\n", admin.ID.Hex())
	fmt.Printf("   Email: %s\n", admin.Email)
	fmt.Printf("   Name: %s\n", admin.Name)
	fmt.Printf("   Role: %s\n", admin.Role)
}
