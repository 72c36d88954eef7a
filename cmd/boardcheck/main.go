package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/park285/cheese-board/internal/obslog"
)

func main() {
	logger, err := obslog.New(obslog.Options{Level: zapcore.InfoLevel, Format: "console", Console: true, ConsoleTo: os.Stderr})
	if err != nil {
		logger = zap.NewNop()
	}
	obslog.Replace(logger)

	root := Root()
	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		logger.Fatal("boardcheck failed", zap.Error(err))
	}
}
