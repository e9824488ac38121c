package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpupo63/issue-tracker/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Start the issue tracker API.\nBy default it listens on port 8080. Use --port or PORT to change it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func serveRun(ctx context.Context) error {
	log.Info().
		Str("env", cfg.AppEnv).
		Str("store", cfg.Database.Type).
		Msg("Initializing app...")

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(db)

	server, err := api.NewServer(db, cfg)
	if err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	// Start and listenToInterrupt both send; neither may block after shutdown.
	errChannel := make(chan error, 2)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	if err := exitError(fatalErr); err != nil {
		log.Error().Err(fatalErr).Msg("Server failed")
		server.ShutdownGracefully(cfg.ShutdownTimeout)
		return err
	}
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(cfg.ShutdownTimeout)
	return nil
}

var errInterrupted = errors.New("interrupted")

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%w: %s", errInterrupted, <-c)
}

// exitError returns the error serve exits with. A signal or a deliberate
// shutdown is a clean exit.
func exitError(err error) error {
	if err == nil || errors.Is(err, errInterrupted) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server: %w", err)
}
