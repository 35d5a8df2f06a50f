package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/staff-management/internal/mail"
	"github.com/frahmantamala/staff-management/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that drain the queues the HTTP server feeds.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Start the mail delivery worker",
	Long:  `Consume queued mail from Kafka and deliver it over SMTP`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

var mailGroupID string

func startMailWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()
	if len(config.Kafka.Brokers) == 0 {
		logger.Error("mail worker needs kafka.brokers")
		os.Exit(1)
	}

	groupID := getStringFlag(mailGroupID, config.Kafka.ConsumerID)
	logger.Info("starting mail worker",
		"brokers", config.Kafka.Brokers,
		"topic", config.Kafka.MailTopic,
		"group_id", groupID,
		"smtp_host", config.Mail.Host)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := mail.NewConsumer(logger, config.Kafka.Brokers, groupID, config.Kafka.MailTopic).
		Handle(config.Kafka.MailTopic, mail.HandleMessage(newSMTPSender(config, logger))).
		Consume(ctx)

	logger.Info("mail worker is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("received signal, shutting down mail worker")
	consumer.Close()
	logger.Info("mail worker shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().StringVar(&mailGroupID, "group-id", "", "Kafka consumer group (overrides config)")

	workerCmd.AddCommand(mailWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
