package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"code.cloudfoundry.org/lager/v3"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"

	"github.com/18F/cdn-cert-renewer/challenge"
	"github.com/18F/cdn-cert-renewer/config"
	"github.com/18F/cdn-cert-renewer/healthchecks"
	"github.com/18F/cdn-cert-renewer/renewer"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() lager.Logger {
	logger := lager.NewLogger("cdn-cert-renewer")
	logger.RegisterSink(lager.NewWriterSink(os.Stderr, lager.INFO))
	return logger
}

func newOrchestrator(logger lager.Logger) (*renewer.Orchestrator, config.Settings, error) {
	settings, err := config.NewSettings()
	if err != nil {
		return nil, config.Settings{}, err
	}
	publisher := challenge.NewPublisher(settings, logger)
	return renewer.NewOrchestrator(settings, logger, publisher), settings, nil
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cdn-cert-renewer",
		Short:         "Renew a TLS certificate via certbot, serving HTTP-01 challenges from an object storage bucket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          renewRunE,
	}
	root.AddCommand(renewCmd(), deployCmd(), cleanupCmd(), cronCmd(), checkCmd())
	return root
}

func renewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Run one certificate renewal",
		RunE:  renewRunE,
	}
}

func renewRunE(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	orch, settings, err := newOrchestrator(logger)
	if err != nil {
		logger.Error("settings", err)
		return err
	}
	return runRenewal(orch, settings)
}

func runRenewal(orch *renewer.Orchestrator, settings config.Settings) error {
	if settings.Domain == "" {
		fmt.Println("Domain should not be empty!")
		return renewer.ErrEmptyDomain
	}

	mode := "PRODUCTION"
	if settings.Staging() {
		mode = "STAGING"
	}
	fmt.Printf("Requesting certificate for %s in %s mode\n", settings.Domain, mode)
	if settings.Staging() {
		fmt.Println("Staging certificates are not browser-trusted; set CERT_IN_PROD=1 for production.")
	}

	if err := orch.Run(); err != nil {
		fmt.Println("Certificate renewal failed!")
		return err
	}

	fmt.Println("Certificate successfully obtained!")
	if settings.Staging() {
		fmt.Println("Reminder: this is a staging certificate.")
	}
	return nil
}

// deployCmd and cleanupCmd are the certbot manual hooks. Certbot invokes
// them as fresh processes with the challenge details in the environment.
func deployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Auth hook: publish the pending challenge (reads CERTBOT_* env vars)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			orch, _, err := newOrchestrator(logger)
			if err != nil {
				logger.Error("settings", err)
				return err
			}
			return orch.Deploy(
				os.Getenv("CERTBOT_DOMAIN"),
				os.Getenv("CERTBOT_TOKEN"),
				os.Getenv("CERTBOT_VALIDATION"),
			)
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Cleanup hook: remove the served challenge (reads CERTBOT_* env vars)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			orch, _, err := newOrchestrator(logger)
			if err != nil {
				logger.Error("settings", err)
				return err
			}
			return orch.Cleanup(
				os.Getenv("CERTBOT_DOMAIN"),
				os.Getenv("CERTBOT_TOKEN"),
			)
		},
	}
}

func cronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cron",
		Short: "Renew on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			orch, settings, err := newOrchestrator(logger)
			if err != nil {
				logger.Error("settings", err)
				return err
			}

			c := cron.New()
			err = c.AddFunc(settings.Schedule, func() {
				logger.Info("scheduled-renew")
				if err := runRenewal(orch, settings); err != nil {
					logger.Error("scheduled-renew", err)
				}
			})
			if err != nil {
				return err
			}

			logger.Info("starting-cron", lager.Data{"schedule": settings.Schedule})
			c.Start()
			waitForExit()
			c.Stop()
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the storage bucket and the certbot binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.NewSettings()
			if err != nil {
				return err
			}

			failed := false
			for name, err := range healthchecks.RunAll(settings) {
				if err != nil {
					failed = true
					fmt.Printf("%s error: %s\n", name, err)
				} else {
					fmt.Printf("%s ok\n", name)
				}
			}
			if failed {
				return errors.New("healthcheck failed")
			}
			return nil
		},
	}
}

func waitForExit() os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return <-ch
}
