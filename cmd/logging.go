package cmd

import (
	"github.com/asimihsan/cwl-mount/internal/logger"
)

// initLogging wires the resolved config into the process-wide logger,
// mirroring the teacher's pattern of configuring logging once flags and
// the optional config file have been merged.
func initLogging() error {
	rotate := logger.RotateConfig{
		MaxFileSizeMB:   config.Logging.LogRotate.MaxFileSizeMB,
		BackupFileCount: config.Logging.LogRotate.BackupFileCount,
		Compress:        config.Logging.LogRotate.Compress,
	}
	return logger.Init(string(config.Logging.Severity), config.Logging.Format, config.Logging.FilePath, rotate)
}
