package main

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-adjdiff/internal/bench"
	"github.com/23skdu/longbow-adjdiff/internal/device"
)

// exitGeneric is the status for failures that carry no device code.
const exitGeneric = 1

// exitCode maps a run error to the process exit status. Build and device
// failures exit with the device status code.
func exitCode(err error) int {
	code := exitGeneric
	switch bench.Category(err) {
	case bench.CategoryBuild:
		var buildErr *device.BuildError
		errors.As(err, &buildErr)
		code = buildErr.Code
	case bench.CategoryDevice:
		var devErr *device.Error
		errors.As(err, &devErr)
		code = devErr.Code
	}
	if code == device.Success {
		return exitGeneric
	}
	return code
}

// reportFailure logs err for its category and returns the exit status.
func reportFailure(err error) int {
	code := exitCode(err)
	switch bench.Category(err) {
	case bench.CategoryBuild:
		var buildErr *device.BuildError
		errors.As(err, &buildErr)
		log.Error().Err(err).Int("code", code).Str("status", device.StatusName(code)).Msg("Kernel build failed")
		for _, l := range buildErr.Logs {
			log.Error().Str("device", l.Device).Str("log", l.Log).Msg("Build log")
		}
	case bench.CategoryDevice:
		log.Error().Err(err).Int("code", code).Str("status", device.StatusName(code)).Msg("Device error")
	default:
		log.Error().Err(err).Msg("Benchmark failed")
	}
	return code
}
