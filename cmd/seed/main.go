package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mansoorceksport/bluefin/internal/config"
	"github.com/mansoorceksport/bluefin/internal/telemetry"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoURI string
	database string
)

func main() {
	telemetry.ConfigureLogger(os.Getenv("LOG_LEVEL"), "console", "bluefin-seed")
	mongoCfg := config.LoadMongoDB()

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed and inspect BlueFin portal data",
	}
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", mongoCfg.URI, "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&database, "database", mongoCfg.Database, "MongoDB database name")

	rootCmd.AddCommand(plansCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(listCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect opens the database named by the persistent flags. The returned
// func disconnects the client.
func connect(ctx context.Context) (*mongo.Database, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	closeFn := func() { _ = client.Disconnect(context.Background()) }
	return client.Database(database), closeFn, nil
}
