package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/localnerve/callcard/internal/devstack"
	"github.com/localnerve/callcard/internal/logging"
	"go.uber.org/zap"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the callcard dependency containers with the environment variables from the .env file.
Prints the settings the service needs to reach them, one KEY=VALUE per line.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	log, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if envFilename != "" {
		log.Info("Loading environment variables", zap.String("file", envFilename))
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatal("Failed to load environment variables", zap.Error(err))
		}
	} else {
		log.Info("No environment file specified, using current environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	stack, err := devstack.Start(ctx, devstack.OptionsFromEnv(), log)
	if err != nil {
		log.Fatal("Failed to create test containers", zap.Error(err))
	}

	keys := make([]string, 0, len(stack.Env))
	for k := range stack.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, stack.Env[k])
	}

	<-ctx.Done()
	log.Info("Received signal, terminating test containers")

	shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stack.Terminate(shutdown, log)
}
