package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/kirinyoku/bedslot/docs"
)

// @title Bedslot API
// @version 1.0
// @description Class booking for bed-based studios: availability, credits, reservations and fixed schedules.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{
		Use:          "bedslot",
		Short:        "Bedslot booking service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newWorkerCommand(),
		newTokenCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
