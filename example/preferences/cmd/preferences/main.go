package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"go.uber.org/fx"

	"github.com/jmens/txchain/pkg/txchain/engine"
	"github.com/jmens/txchain/pkg/txchain/listener"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// embeddedConfig holds the content of the application's YAML configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// startPipeline runs the pipeline once the application has started and shuts the
// application down when the completion message arrives.
func startPipeline(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	executor *engine.Executor,
	signaler *listener.CompletionSignaler,
	appCtx context.Context,
) {
	finished := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: onStartPipeline(executor, signaler, shutdowner, appCtx, finished),
		OnStop:  onStopApplication(finished),
	})
}

// onStartPipeline starts the run in its own goroutine and waits for its terminal message.
func onStartPipeline(
	executor *engine.Executor,
	signaler *listener.CompletionSignaler,
	shutdowner fx.Shutdowner,
	appCtx context.Context,
	finished chan struct{},
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		go func() {
			defer close(finished)
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic recovered in pipeline execution: %v", r)
				}
			}()
			logger.Infof("Starting pipeline '%s'...", executor.Name())
			executor.Run(appCtx)
		}()

		go func() {
			exitCode := 0
			select {
			case msg := <-signaler.Done():
				logger.Infof("Pipeline finished with: %s", msg.Body)
				if msg.Body != engine.OutcomeSuccess {
					exitCode = 1
				}
			case <-appCtx.Done():
				logger.Warnf("Application context cancelled before pipeline '%s' finished.", executor.Name())
				exitCode = 1
			}

			logger.Infof("Requesting application shutdown after pipeline completion.")
			if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
				logger.Errorf("Failed to shutdown application: %v", err)
			}
		}()
		return nil
	}
}

// onStopApplication waits for the running pipeline to release its connection.
func onStopApplication(finished <-chan struct{}) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Infof("Application is shutting down.")
		select {
		case <-finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the pipeline...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig)...)
	if err := fxApp.Err(); err != nil {
		logger.Fatalf("Application setup failed: %v", err)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), fxApp.StartTimeout())
	defer startCancel()
	if err := fxApp.Start(startCtx); err != nil {
		logger.Fatalf("Application start failed: %v", err)
	}

	sig := <-fxApp.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		logger.Errorf("Application stop failed: %v", err)
	}
	os.Exit(sig.ExitCode)
}

