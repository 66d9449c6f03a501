package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

// ErrUnknownMode 未知启动模式
var ErrUnknownMode = errors.New("unknown run mode")

// Options 应用启动选项
type Options struct {
	Config  *config.Config
	Logger  *zap.SugaredLogger
	Signals []os.Signal
	Mode    string
}

// ParseMode 规范化启动模式，空值视为 all
func ParseMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "":
		return ModeAll, nil
	case ModeAll, ModeAPI, ModeWorker:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

func servesAPI(mode string) bool {
	return mode == ModeAll || mode == ModeAPI
}

func runsWorker(mode string) bool {
	return mode == ModeAll || mode == ModeWorker
}

func normalizeOptions(opts Options) (Options, error) {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	return opts, nil
}
