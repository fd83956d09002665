package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"gitflow.dev/gitflow/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if os.Getenv("GITFLOW_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.MultiLevelWriter(
			zerolog.ConsoleWriter{Out: os.Stderr},
			debugLogWriter(),
		))
	}

	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// debugLogWriter returns a rotating file sink for debug traces, so a
// permanently exported GITFLOW_DEBUG cannot grow an unbounded log.
func debugLogWriter() io.Writer {
	dir, err := os.UserCacheDir()
	if err != nil {
		return io.Discard
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, "gitflow", "debug.log"),
		MaxSize:    1, // megabytes
		MaxBackups: 2,
		MaxAge:     30, // days
	}
}
