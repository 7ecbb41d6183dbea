/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nuts-foundation/nuts-issuer/api/issuer/v1"
	openid4vciAPI "github.com/nuts-foundation/nuts-issuer/api/openid4vci/v0"
	"github.com/nuts-foundation/nuts-issuer/auth"
	authCmd "github.com/nuts-foundation/nuts-issuer/auth/cmd"
	"github.com/nuts-foundation/nuts-issuer/core"
	"github.com/nuts-foundation/nuts-issuer/crypto"
	cryptoCmd "github.com/nuts-foundation/nuts-issuer/crypto/cmd"
	"github.com/nuts-foundation/nuts-issuer/events"
	eventsCmd "github.com/nuts-foundation/nuts-issuer/events/cmd"
	"github.com/nuts-foundation/nuts-issuer/issuer"
	issuerCmd "github.com/nuts-foundation/nuts-issuer/issuer/cmd"
	"github.com/nuts-foundation/nuts-issuer/storage"
	storageCmd "github.com/nuts-foundation/nuts-issuer/storage/cmd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

var stdOutWriter io.Writer = os.Stdout

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nuts-issuer",
		Short: "Nuts issuer executable, which runs an OpenID4VCI credential issuer.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
		SilenceUsage: true,
	}
}

func createPrintConfigCommand(system *core.System) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the current config",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Current system config")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), system.Config.PrintConfig())
		},
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version and build information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), core.BuildInfo())
		},
	}
}

func createServerCommand(ctx context.Context, system *core.System) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the issuer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return startServer(ctx, system)
		},
	}
}

func startServer(ctx context.Context, system *core.System) error {
	logrus.Info("Starting issuer with config:")
	logrus.Info(system.Config.PrintConfig())
	shutdownTracing, err := core.SetupTracing(system.Config.Tracing)
	if err != nil {
		return fmt.Errorf("unable to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Error shutting down tracing")
		}
	}()
	// check config on all engines
	if err := system.Configure(); err != nil {
		return err
	}
	echoServer, err := system.EchoCreator(system.Config.HTTP, system.Config.Strictmode)
	if err != nil {
		return err
	}
	system.Routes(echoServer)
	// start engines
	if err := system.Start(); err != nil {
		return err
	}
	defer func() {
		if err := system.Shutdown(); err != nil {
			logrus.WithError(err).Error("Error shutting down engines")
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server listening on %s", system.Config.HTTP.Address)
		if err := echoServer.Start(system.Config.HTTP.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("unable to start HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logrus.Info("Shutting down issuer")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := echoServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Error shutting down HTTP server")
	}
	return nil
}

// CreateCommand creates the command with all subcommands to run the system.
func CreateCommand(ctx context.Context, system *core.System) *cobra.Command {
	command := createRootCommand()
	command.SetOut(stdOutWriter)
	command.PersistentFlags().AddFlagSet(serverConfigFlags())
	command.AddCommand(createServerCommand(ctx, system))
	command.AddCommand(createPrintConfigCommand(system))
	command.AddCommand(createVersionCommand())
	return command
}

// serverConfigFlags returns the flags of the server config and of all engines.
func serverConfigFlags() *pflag.FlagSet {
	set := pflag.NewFlagSet("server", pflag.ContinueOnError)
	set.AddFlagSet(core.FlagSet())
	set.AddFlagSet(storageCmd.FlagSet())
	set.AddFlagSet(cryptoCmd.FlagSet())
	set.AddFlagSet(authCmd.FlagSet())
	set.AddFlagSet(eventsCmd.FlagSet())
	set.AddFlagSet(issuerCmd.FlagSet())
	return set
}

// CreateSystem creates the system and registers all default engines.
func CreateSystem() *core.System {
	system := core.NewSystem()

	// Create instances
	storageInstance := storage.New()
	cryptoInstance := crypto.NewCryptoInstance()
	authInstance := auth.NewAuthInstance()
	eventManager := events.NewManager()
	issuerInstance := issuer.NewIssuer(cryptoInstance, storageInstance, eventManager)

	// Register HTTP routes
	system.RegisterRoutes(&v1.Wrapper{Issuer: issuerInstance})
	system.RegisterRoutes(openid4vciAPI.Wrapper{Issuer: issuerInstance, Guards: authInstance})

	// Register engines, they are started in this order and shut down in reverse order
	system.RegisterEngine(core.NewStatusEngine(system))
	system.RegisterEngine(core.NewMetricsEngine())
	system.RegisterEngine(storageInstance)
	system.RegisterEngine(cryptoInstance)
	system.RegisterEngine(authInstance)
	system.RegisterEngine(eventManager)
	system.RegisterEngine(issuerInstance)
	return system
}

// Execute loads the config and executes the root command. It blocks until the context is cancelled when the server is started.
func Execute(ctx context.Context, system *core.System) error {
	command := CreateCommand(ctx, system)
	command.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// Load all config and inject it into the engines
		return system.Load(cmd.Flags())
	}
	return command.ExecuteContext(ctx)
}
